package tracker

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/zulandar/issuedesk/internal/models"
	"github.com/zulandar/issuedesk/internal/policy"
	"github.com/zulandar/issuedesk/internal/scope"
	"gorm.io/gorm"
)

// CommentCreateOpts holds parameters for creating a comment. The author
// is always the acting identity.
type CommentCreateOpts struct {
	IssueID     uint
	Description string
}

// CommentUpdateOpts holds partial-update parameters. A nil IssueID keeps
// the comment's current issue.
type CommentUpdateOpts struct {
	IssueID     *uint
	Description *string
}

// CreateComment creates a comment authored by the actor. The actor must
// be the issue's project author or a member.
func CreateComment(db *gorm.DB, actor *models.Contributor, opts CommentCreateOpts) (*models.Comment, error) {
	if opts.IssueID == 0 {
		return nil, Validationf("issue is required")
	}
	if err := validateCommentDescription(opts.Description); err != nil {
		return nil, err
	}

	issue, err := loadIssue(db, opts.IssueID)
	if err != nil {
		return nil, err
	}
	if err := checkCommentAuthor(db, issue, actor); err != nil {
		return nil, err
	}

	comment := models.Comment{
		IssueID:     issue.ID,
		AuthorID:    actor.ID,
		Description: opts.Description,
	}
	if err := db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("tracker: create comment: %w", err)
	}
	return GetComment(db, comment.ID)
}

// GetComment retrieves a comment by ID with the associations its
// representation embeds.
func GetComment(db *gorm.DB, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := db.
		Preload("Issue").
		Preload("Issue.Comments").
		Preload("Author.Account").
		First(&comment, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundf("comment %d not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: get comment %d: %w", id, err)
	}
	return &comment, nil
}

// ListComments returns a page of the comments visible to the actor with
// the total count.
func ListComments(db *gorm.DB, actor *models.Contributor, limit, offset int) ([]models.Comment, int64, error) {
	var count int64
	if err := scope.Comments(db, actor).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("tracker: count comments: %w", err)
	}
	var comments []models.Comment
	err := scope.Comments(db, actor).
		Preload("Issue").
		Preload("Issue.Comments").
		Preload("Author.Account").
		Order("comments.id ASC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, fmt.Errorf("tracker: list comments: %w", err)
	}
	return comments, count, nil
}

// UpdateComment applies a partial update. Only the comment author may
// write; the issue defaults to the comment's current issue.
func UpdateComment(db *gorm.DB, actor *models.Contributor, id uint, opts CommentUpdateOpts) (*models.Comment, error) {
	comment, err := GetComment(db, id)
	if err != nil {
		return nil, err
	}
	if !policy.CanWrite(actor, comment) {
		return nil, Forbiddenf("only the comment author may modify it")
	}

	issueID := comment.IssueID
	if opts.IssueID != nil {
		issueID = *opts.IssueID
	}
	issue, err := loadIssue(db, issueID)
	if err != nil {
		return nil, err
	}
	if err := checkCommentAuthor(db, issue, actor); err != nil {
		return nil, err
	}

	description := comment.Description
	if opts.Description != nil {
		description = *opts.Description
	}
	if err := validateCommentDescription(description); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"issue_id":    issue.ID,
		"description": description,
	}
	if err := db.Model(&models.Comment{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("tracker: update comment %d: %w", id, err)
	}
	return GetComment(db, id)
}

// DeleteComment removes a comment. Only the author may delete.
func DeleteComment(db *gorm.DB, actor *models.Contributor, id uint) error {
	comment, err := GetComment(db, id)
	if err != nil {
		return err
	}
	if !policy.CanWrite(actor, comment) {
		return Forbiddenf("only the comment author may delete it")
	}
	if err := db.Delete(&models.Comment{}, id).Error; err != nil {
		return fmt.Errorf("tracker: delete comment %d: %w", id, err)
	}
	return nil
}

func validateCommentDescription(description string) error {
	if description == "" {
		return Validationf("description is required")
	}
	if utf8.RuneCountInString(description) > 3000 {
		return Validationf("description must be at most 3000 characters")
	}
	return nil
}

// loadIssue resolves an issue reference supplied in a payload. Like
// loadProject, a missing issue fails validation.
func loadIssue(db *gorm.DB, id uint) (*models.Issue, error) {
	var issue models.Issue
	err := db.First(&issue, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, Validationf("issue %d does not exist", id)
	}
	if err != nil {
		return nil, fmt.Errorf("tracker: load issue %d: %w", id, err)
	}
	return &issue, nil
}

// checkCommentAuthor enforces that the author is the issue's project
// author or a listed member.
func checkCommentAuthor(db *gorm.DB, issue *models.Issue, author *models.Contributor) error {
	project, err := loadProject(db, issue.ProjectID)
	if err != nil {
		return err
	}
	ok, err := memberOrAuthor(db, project, author.ID)
	if err != nil {
		return err
	}
	if !ok {
		return Forbiddenf("you are not a contributor or the author of this project")
	}
	return nil
}
