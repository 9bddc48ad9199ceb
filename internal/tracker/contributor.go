// Package tracker provides the domain operations of IssueDesk:
// contributor, project, issue, and comment lifecycles with their
// validation and membership rules. Every operation takes the acting
// identity explicitly; there is no ambient request state.
package tracker

import (
	"errors"
	"fmt"

	"github.com/zulandar/issuedesk/internal/auth"
	"github.com/zulandar/issuedesk/internal/models"
	"github.com/zulandar/issuedesk/internal/scope"
	"gorm.io/gorm"
)

// MinimumAge is the lowest age accepted at registration.
const MinimumAge = 15

// defaultAge applies when registration omits the age field.
const defaultAge = 18

// ContributorCreateOpts holds parameters for self-registration.
// Registration requires no authentication.
type ContributorCreateOpts struct {
	Username        string
	Password        string
	Age             *int
	CanBeContacted  bool
	CanDataBeShared bool
}

// ContributorUpdateOpts holds partial-update parameters. Nil fields are
// left unchanged.
type ContributorUpdateOpts struct {
	Username        *string
	Password        *string
	Age             *int
	CanBeContacted  *bool
	CanDataBeShared *bool
}

// ContributorStats holds the derived counts shown in a contributor
// representation.
type ContributorStats struct {
	AuthoredProjects int64
	AssignedIssues   int64
	AuthoredComments int64
}

// CreateContributor registers a new contributor and its backing account
// in one transaction. The password is bcrypt-hashed before persistence.
func CreateContributor(db *gorm.DB, opts ContributorCreateOpts) (*models.Contributor, error) {
	if opts.Username == "" {
		return nil, Validationf("username is required")
	}
	if opts.Password == "" {
		return nil, Validationf("password is required")
	}
	age := defaultAge
	if opts.Age != nil {
		age = *opts.Age
	}
	if age < MinimumAge {
		return nil, Validationf("you must be at least %d years old to use this application", MinimumAge)
	}
	if taken, err := usernameTaken(db, opts.Username, 0); err != nil {
		return nil, err
	} else if taken {
		return nil, Validationf("username %q is already taken", opts.Username)
	}

	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return nil, err
	}

	contributor := models.Contributor{
		Age:             age,
		CanBeContacted:  opts.CanBeContacted,
		CanDataBeShared: opts.CanDataBeShared,
		Account: models.Account{
			Username:     opts.Username,
			PasswordHash: hash,
		},
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&contributor).Error
	})
	if err != nil {
		return nil, fmt.Errorf("tracker: create contributor: %w", err)
	}
	return &contributor, nil
}

// GetContributor retrieves a contributor by ID with its account loaded.
func GetContributor(db *gorm.DB, id uint) (*models.Contributor, error) {
	var contributor models.Contributor
	err := db.Preload("Account").First(&contributor, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundf("contributor %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: get contributor %d: %w", id, err)
	}
	return &contributor, nil
}

// ListContributors returns a page of all contributors with the total
// count. Contributor lists are not scoped.
func ListContributors(db *gorm.DB, limit, offset int) ([]models.Contributor, int64, error) {
	var count int64
	if err := scope.Contributors(db).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("tracker: count contributors: %w", err)
	}
	var contributors []models.Contributor
	err := scope.Contributors(db).
		Preload("Account").
		Order("contributors.id ASC").
		Limit(limit).Offset(offset).
		Find(&contributors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("tracker: list contributors: %w", err)
	}
	return contributors, count, nil
}

// UpdateContributor applies a partial update. Only the contributor's own
// identity may write, and username uniqueness excludes the requester's
// current account.
func UpdateContributor(db *gorm.DB, actor *models.Contributor, id uint, opts ContributorUpdateOpts) (*models.Contributor, error) {
	contributor, err := GetContributor(db, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != contributor.ID {
		return nil, Forbiddenf("you may only modify your own contributor record")
	}

	if opts.Username != nil {
		if *opts.Username == "" {
			return nil, Validationf("username is required")
		}
		if taken, err := usernameTaken(db, *opts.Username, contributor.AccountID); err != nil {
			return nil, err
		} else if taken {
			return nil, Validationf("username %q is already taken", *opts.Username)
		}
		contributor.Account.Username = *opts.Username
	}
	if opts.Password != nil {
		hash, err := auth.HashPassword(*opts.Password)
		if err != nil {
			return nil, err
		}
		contributor.Account.PasswordHash = hash
	}
	if opts.Age != nil {
		if *opts.Age < MinimumAge {
			return nil, Validationf("you must be at least %d years old to use this application", MinimumAge)
		}
		contributor.Age = *opts.Age
	}
	if opts.CanBeContacted != nil {
		contributor.CanBeContacted = *opts.CanBeContacted
	}
	if opts.CanDataBeShared != nil {
		contributor.CanDataBeShared = *opts.CanDataBeShared
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&contributor.Account).Error; err != nil {
			return err
		}
		return tx.Save(contributor).Error
	})
	if err != nil {
		return nil, fmt.Errorf("tracker: update contributor %d: %w", id, err)
	}
	return contributor, nil
}

// DeleteContributor removes a contributor and its backing account. Only
// the contributor's own identity may delete. Assigned issues are cleared;
// authored projects, issues, and comments block the delete.
func DeleteContributor(db *gorm.DB, actor *models.Contributor, id uint) error {
	contributor, err := GetContributor(db, id)
	if err != nil {
		return err
	}
	if actor.ID != contributor.ID {
		return Forbiddenf("you may only delete your own contributor record")
	}

	var authored int64
	if err := db.Model(&models.Project{}).Where("author_id = ?", id).Count(&authored).Error; err != nil {
		return fmt.Errorf("tracker: count authored projects: %w", err)
	}
	if authored > 0 {
		return Validationf("contributor still authors %d project(s)", authored)
	}
	if err := db.Model(&models.Issue{}).Where("author_id = ?", id).Count(&authored).Error; err != nil {
		return fmt.Errorf("tracker: count authored issues: %w", err)
	}
	if authored > 0 {
		return Validationf("contributor still authors %d issue(s)", authored)
	}
	if err := db.Model(&models.Comment{}).Where("author_id = ?", id).Count(&authored).Error; err != nil {
		return fmt.Errorf("tracker: count authored comments: %w", err)
	}
	if authored > 0 {
		return Validationf("contributor still authors %d comment(s)", authored)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Issue{}).
			Where("assigned_contributor_id = ?", id).
			Update("assigned_contributor_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM project_contributors WHERE contributor_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Contributor{}, id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Account{}, contributor.AccountID).Error
	})
	if err != nil {
		return fmt.Errorf("tracker: delete contributor %d: %w", id, err)
	}
	return nil
}

// StatsFor computes the derived counts for a contributor representation.
func StatsFor(db *gorm.DB, contributorID uint) (*ContributorStats, error) {
	var stats ContributorStats
	if err := db.Model(&models.Project{}).Where("author_id = ?", contributorID).Count(&stats.AuthoredProjects).Error; err != nil {
		return nil, fmt.Errorf("tracker: count authored projects: %w", err)
	}
	if err := db.Model(&models.Issue{}).Where("assigned_contributor_id = ?", contributorID).Count(&stats.AssignedIssues).Error; err != nil {
		return nil, fmt.Errorf("tracker: count assigned issues: %w", err)
	}
	if err := db.Model(&models.Comment{}).Where("author_id = ?", contributorID).Count(&stats.AuthoredComments).Error; err != nil {
		return nil, fmt.Errorf("tracker: count authored comments: %w", err)
	}
	return &stats, nil
}

// usernameTaken checks case-sensitive username uniqueness, ignoring the
// account identified by exceptAccountID.
func usernameTaken(db *gorm.DB, username string, exceptAccountID uint) (bool, error) {
	var count int64
	q := db.Model(&models.Account{}).Where("username = ?", username)
	if exceptAccountID != 0 {
		q = q.Where("id <> ?", exceptAccountID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("tracker: check username: %w", err)
	}
	return count > 0, nil
}
