package tracker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zulandar/issuedesk/internal/models"
	"github.com/zulandar/issuedesk/internal/policy"
	"github.com/zulandar/issuedesk/internal/scope"
	"gorm.io/gorm"
)

// ProjectCreateOpts holds parameters for creating a project. Contributors
// is an optional comma-separated list of usernames added to the
// membership alongside the author.
type ProjectCreateOpts struct {
	Name         string
	Description  string
	Type         string
	Contributors string
}

// ProjectUpdateOpts holds partial-update parameters. Nil fields are left
// unchanged; author and created_time are immutable.
type ProjectUpdateOpts struct {
	Name        *string
	Description *string
	Type        *string
}

// CreateProject creates a project authored by the actor. The author and
// any resolved contributor names become the membership set; creation of
// the project row and its membership rows is one transaction. An
// unresolvable contributor name fails the whole create.
func CreateProject(db *gorm.DB, actor *models.Contributor, opts ProjectCreateOpts) (*models.Project, error) {
	if opts.Name == "" {
		return nil, Validationf("name is required")
	}
	if utf8.RuneCountInString(opts.Name) > 100 {
		return nil, Validationf("name must be at most 100 characters")
	}
	if utf8.RuneCountInString(opts.Description) > 500 {
		return nil, Validationf("description must be at most 500 characters")
	}
	if !validOptionalChoice(opts.Type, ProjectTypes) {
		return nil, Validationf("type must be one of %s", strings.Join(ProjectTypes, ", "))
	}

	members := []models.Contributor{*actor}
	seen := map[uint]bool{actor.ID: true}
	if opts.Contributors != "" {
		for _, name := range strings.Split(opts.Contributors, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			member, err := ResolveContributor(db, ContributorRef{Name: name})
			if err != nil {
				return nil, err
			}
			if seen[member.ID] {
				continue
			}
			seen[member.ID] = true
			members = append(members, *member)
		}
	}

	project := models.Project{
		Name:        opts.Name,
		Description: opts.Description,
		Type:        opts.Type,
		AuthorID:    actor.ID,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return tx.Model(&project).Association("Contributors").Append(members)
	})
	if err != nil {
		return nil, fmt.Errorf("tracker: create project: %w", err)
	}
	return GetProject(db, project.ID)
}

// GetProject retrieves a project by ID with the associations its
// representation embeds.
func GetProject(db *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	err := db.
		Preload("Author.Account").
		Preload("Contributors.Account").
		Preload("Issues").
		Preload("Issues.Comments").
		First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundf("project %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: get project %d: %w", id, err)
	}
	return &project, nil
}

// ListProjects returns a page of the projects visible to the actor with
// the total count.
func ListProjects(db *gorm.DB, actor *models.Contributor, limit, offset int) ([]models.Project, int64, error) {
	var count int64
	if err := scope.Projects(db, actor).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("tracker: count projects: %w", err)
	}
	var projects []models.Project
	err := scope.Projects(db, actor).
		Preload("Author.Account").
		Preload("Contributors.Account").
		Preload("Issues").
		Preload("Issues.Comments").
		Order("projects.id ASC").
		Limit(limit).Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, 0, fmt.Errorf("tracker: list projects: %w", err)
	}
	return projects, count, nil
}

// UpdateProject applies a partial update. Only the author may write.
func UpdateProject(db *gorm.DB, actor *models.Contributor, id uint, opts ProjectUpdateOpts) (*models.Project, error) {
	project, err := GetProject(db, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(actor, project) {
		return nil, Forbiddenf("only the project author may modify it")
	}

	if opts.Name != nil {
		if *opts.Name == "" {
			return nil, Validationf("name is required")
		}
		if utf8.RuneCountInString(*opts.Name) > 100 {
			return nil, Validationf("name must be at most 100 characters")
		}
		project.Name = *opts.Name
	}
	if opts.Description != nil {
		if utf8.RuneCountInString(*opts.Description) > 500 {
			return nil, Validationf("description must be at most 500 characters")
		}
		project.Description = *opts.Description
	}
	if opts.Type != nil {
		if !validOptionalChoice(*opts.Type, ProjectTypes) {
			return nil, Validationf("type must be one of %s", strings.Join(ProjectTypes, ", "))
		}
		project.Type = *opts.Type
	}

	updates := map[string]interface{}{
		"name":        project.Name,
		"description": project.Description,
		"type":        project.Type,
	}
	if err := db.Model(&models.Project{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("tracker: update project %d: %w", id, err)
	}
	return GetProject(db, id)
}

// DeleteProject removes a project and its membership rows. Only the
// author may delete, and issues block the delete.
func DeleteProject(db *gorm.DB, actor *models.Contributor, id uint) error {
	project, err := GetProject(db, id)
	if err != nil {
		return err
	}
	if !policy.CanWrite(actor, project) {
		return Forbiddenf("only the project author may delete it")
	}
	if len(project.Issues) > 0 {
		return Validationf("project still has %d issue(s)", len(project.Issues))
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM project_contributors WHERE project_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("tracker: delete project %d: %w", id, err)
	}
	return nil
}

// memberOrAuthor reports whether the contributor may act inside the
// project: the project author or any listed member qualifies.
func memberOrAuthor(db *gorm.DB, project *models.Project, contributorID uint) (bool, error) {
	if project.AuthorID == contributorID {
		return true, nil
	}
	return policy.Member(db, project.ID, contributorID)
}
