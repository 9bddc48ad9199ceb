package models

import "time"

// Issue is a trackable unit of work under a project. The author and the
// assigned contributor must both be the project's author or members.
type Issue struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement"`
	ProjectID             uint      `gorm:"not null;index"`
	AuthorID              uint      `gorm:"not null;index"`
	AssignedContributorID *uint     `gorm:"index"`
	State                 string    `gorm:"size:32;not null"`
	Priority              string    `gorm:"size:16"`
	Label                 string    `gorm:"size:16"`
	CreatedTime           time.Time `gorm:"autoCreateTime"`

	Project             Project      `gorm:"foreignKey:ProjectID"`
	Author              Contributor  `gorm:"foreignKey:AuthorID"`
	AssignedContributor *Contributor `gorm:"foreignKey:AssignedContributorID"`
	Comments            []Comment    `gorm:"foreignKey:IssueID;constraint:OnDelete:CASCADE"`
}

// OwnerID identifies the contributor with write access to the issue.
func (i *Issue) OwnerID() uint { return i.AuthorID }
