// Package policy decides, per entity instance and acting identity,
// whether an action is permitted.
package policy

import (
	"fmt"

	"github.com/zulandar/issuedesk/internal/models"
	"gorm.io/gorm"
)

// Owned is implemented by entities with a single owning contributor.
// Project, Issue, and Comment satisfy it.
type Owned interface {
	OwnerID() uint
}

// CanWrite reports whether the actor may update or delete the target.
// Only the owner may write.
func CanWrite(actor *models.Contributor, target Owned) bool {
	return actor != nil && actor.ID == target.OwnerID()
}

// Member reports whether the contributor is in the project's membership list.
func Member(db *gorm.DB, projectID, contributorID uint) (bool, error) {
	var count int64
	err := db.Table("project_contributors").
		Where("project_id = ? AND contributor_id = ?", projectID, contributorID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("policy: check membership: %w", err)
	}
	return count > 0, nil
}

// CanReadProject reports whether the actor may read the project: the
// author always can, members can, nobody else.
func CanReadProject(db *gorm.DB, actor *models.Contributor, project *models.Project) (bool, error) {
	if actor == nil {
		return false, nil
	}
	if project.AuthorID == actor.ID {
		return true, nil
	}
	return Member(db, project.ID, actor.ID)
}

// CanReadIssue applies the parent project's read rule to an issue.
func CanReadIssue(db *gorm.DB, actor *models.Contributor, issue *models.Issue) (bool, error) {
	return canReadProjectID(db, actor, issue.ProjectID)
}

// CanReadComment applies the grandparent project's read rule to a comment.
func CanReadComment(db *gorm.DB, actor *models.Contributor, comment *models.Comment) (bool, error) {
	var issue models.Issue
	if err := db.Select("id", "project_id").First(&issue, comment.IssueID).Error; err != nil {
		return false, fmt.Errorf("policy: load issue %d: %w", comment.IssueID, err)
	}
	return canReadProjectID(db, actor, issue.ProjectID)
}

func canReadProjectID(db *gorm.DB, actor *models.Contributor, projectID uint) (bool, error) {
	if actor == nil {
		return false, nil
	}
	var project models.Project
	if err := db.Select("id", "author_id").First(&project, projectID).Error; err != nil {
		return false, fmt.Errorf("policy: load project %d: %w", projectID, err)
	}
	return CanReadProject(db, actor, &project)
}
