package tracker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zulandar/issuedesk/internal/models"
	"github.com/zulandar/issuedesk/internal/policy"
	"github.com/zulandar/issuedesk/internal/scope"
	"gorm.io/gorm"
)

// IssueCreateOpts holds parameters for creating an issue. The author is
// always the acting identity; Assigned defaults to the actor when absent.
type IssueCreateOpts struct {
	ProjectID uint
	Assigned  ContributorRef
	State     string
	Priority  string
	Label     string
}

// IssueUpdateOpts holds partial-update parameters. A nil ProjectID keeps
// the issue's current project. An absent Assigned reverts the assignment
// to the acting identity.
type IssueUpdateOpts struct {
	ProjectID *uint
	Assigned  ContributorRef
	State     *string
	Priority  *string
	Label     *string
}

// CreateIssue creates an issue authored by the actor. Both the author and
// the resolved assignee must be the project's author or members.
func CreateIssue(db *gorm.DB, actor *models.Contributor, opts IssueCreateOpts) (*models.Issue, error) {
	if opts.ProjectID == 0 {
		return nil, Validationf("project is required")
	}
	project, err := loadProject(db, opts.ProjectID)
	if err != nil {
		return nil, err
	}

	assigned := actor
	if !opts.Assigned.IsZero() {
		assigned, err = ResolveContributor(db, opts.Assigned)
		if err != nil {
			return nil, err
		}
	}

	if err := checkIssueParticipants(db, project, actor, assigned); err != nil {
		return nil, err
	}

	state := opts.State
	if state == "" {
		state = DefaultIssueState
	}
	if err := validateIssueChoices(state, opts.Priority, opts.Label); err != nil {
		return nil, err
	}

	issue := models.Issue{
		ProjectID:             project.ID,
		AuthorID:              actor.ID,
		AssignedContributorID: &assigned.ID,
		State:                 state,
		Priority:              opts.Priority,
		Label:                 opts.Label,
	}
	if err := db.Create(&issue).Error; err != nil {
		return nil, fmt.Errorf("tracker: create issue: %w", err)
	}
	return GetIssue(db, issue.ID)
}

// GetIssue retrieves an issue by ID with the associations its
// representation embeds.
func GetIssue(db *gorm.DB, id uint) (*models.Issue, error) {
	var issue models.Issue
	err := db.
		Preload("Author.Account").
		Preload("AssignedContributor.Account").
		Preload("Comments").
		First(&issue, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundf("issue %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: get issue %d: %w", id, err)
	}
	return &issue, nil
}

// ListIssues returns a page of the issues visible to the actor (authored
// or assigned) with the total count.
func ListIssues(db *gorm.DB, actor *models.Contributor, limit, offset int) ([]models.Issue, int64, error) {
	var count int64
	if err := scope.Issues(db, actor).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("tracker: count issues: %w", err)
	}
	var issues []models.Issue
	err := scope.Issues(db, actor).
		Preload("Author.Account").
		Preload("AssignedContributor.Account").
		Preload("Comments").
		Order("issues.id ASC").
		Limit(limit).Offset(offset).
		Find(&issues).Error
	if err != nil {
		return nil, 0, fmt.Errorf("tracker: list issues: %w", err)
	}
	return issues, count, nil
}

// UpdateIssue applies a partial update. Only the issue author may write.
// The project defaults to the issue's current project and the assignment
// defaults to the actor when the fields are absent.
func UpdateIssue(db *gorm.DB, actor *models.Contributor, id uint, opts IssueUpdateOpts) (*models.Issue, error) {
	issue, err := GetIssue(db, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(actor, issue) {
		return nil, Forbiddenf("only the issue author may modify it")
	}

	projectID := issue.ProjectID
	if opts.ProjectID != nil {
		projectID = *opts.ProjectID
	}
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}

	assigned := actor
	if !opts.Assigned.IsZero() {
		assigned, err = ResolveContributor(db, opts.Assigned)
		if err != nil {
			return nil, err
		}
	}

	if err := checkIssueParticipants(db, project, actor, assigned); err != nil {
		return nil, err
	}

	state := issue.State
	if opts.State != nil {
		state = *opts.State
	}
	priority := issue.Priority
	if opts.Priority != nil {
		priority = *opts.Priority
	}
	label := issue.Label
	if opts.Label != nil {
		label = *opts.Label
	}
	if err := validateIssueChoices(state, priority, label); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"project_id":              project.ID,
		"assigned_contributor_id": assigned.ID,
		"state":                   state,
		"priority":                priority,
		"label":                   label,
	}
	if err := db.Model(&models.Issue{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("tracker: update issue %d: %w", id, err)
	}
	return GetIssue(db, id)
}

// DeleteIssue removes an issue and its comments. Only the author may
// delete.
func DeleteIssue(db *gorm.DB, actor *models.Contributor, id uint) error {
	issue, err := GetIssue(db, id)
	if err != nil {
		return err
	}
	if !policy.CanWrite(actor, issue) {
		return Forbiddenf("only the issue author may delete it")
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("issue_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Issue{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("tracker: delete issue %d: %w", id, err)
	}
	return nil
}

// loadProject resolves a project reference supplied in a payload. A
// missing project is a validation failure, not a 404: the issue or
// comment itself is the addressed resource.
func loadProject(db *gorm.DB, id uint) (*models.Project, error) {
	var project models.Project
	err := db.First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Validationf("project %d does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: load project %d: %w", id, err)
	}
	return &project, nil
}

// checkIssueParticipants enforces that the author and the assignee are
// each the project's author or a listed member.
func checkIssueParticipants(db *gorm.DB, project *models.Project, author, assigned *models.Contributor) error {
	ok, err := memberOrAuthor(db, project, author.ID)
	if err != nil {
		return err
	}
	if !ok {
		return Forbiddenf("you are not a contributor or the author of this project")
	}
	ok, err = memberOrAuthor(db, project, assigned.ID)
	if err != nil {
		return err
	}
	if !ok {
		return Forbiddenf("assigned contributor is not a contributor or the author of this project")
	}
	return nil
}

func validateIssueChoices(state, priority, label string) error {
	if !validChoice(state, IssueStates) {
		return Validationf("state must be one of %s", strings.Join(IssueStates, ", "))
	}
	if !validOptionalChoice(priority, IssuePriorities) {
		return Validationf("priority must be one of %s", strings.Join(IssuePriorities, ", "))
	}
	if !validOptionalChoice(label, IssueLabels) {
		return Validationf("label must be one of %s", strings.Join(IssueLabels, ", "))
	}
	return nil
}
