// Package scope computes the subset of entities an identity may list.
// Single-object fetches bypass scoping and go through package policy.
package scope

import (
	"github.com/zulandar/issuedesk/internal/models"
	"gorm.io/gorm"
)

// Contributors returns the contributor list query. Membership lists are
// globally visible to any authenticated identity, so no scoping applies.
func Contributors(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Contributor{})
}

// Projects returns the projects where the actor is a contributor member.
// The author is auto-added as a member at creation, so authored projects
// are included.
func Projects(db *gorm.DB, actor *models.Contributor) *gorm.DB {
	return db.Model(&models.Project{}).
		Joins("JOIN project_contributors pc ON pc.project_id = projects.id").
		Where("pc.contributor_id = ?", actor.ID)
}

// Issues returns the union of issues authored by and assigned to the actor.
func Issues(db *gorm.DB, actor *models.Contributor) *gorm.DB {
	return db.Model(&models.Issue{}).
		Where("author_id = ? OR assigned_contributor_id = ?", actor.ID, actor.ID)
}

// Comments returns the comments of issues belonging to the actor's
// membership projects. The join is filtered to one contributor and the
// join table's composite key yields at most one row per comment, so no
// deduplication is needed.
func Comments(db *gorm.DB, actor *models.Contributor) *gorm.DB {
	return db.Model(&models.Comment{}).
		Joins("JOIN issues ON issues.id = comments.issue_id").
		Joins("JOIN project_contributors pc ON pc.project_id = issues.project_id").
		Where("pc.contributor_id = ?", actor.ID)
}
