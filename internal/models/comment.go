package models

import "time"

// Comment is a note attached to an issue. Comments are deleted with
// their issue.
type Comment struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	IssueID     uint      `gorm:"not null;index"`
	AuthorID    uint      `gorm:"not null;index"`
	Description string    `gorm:"size:3000;not null"`
	CreatedTime time.Time `gorm:"autoCreateTime"`

	Issue  Issue       `gorm:"foreignKey:IssueID"`
	Author Contributor `gorm:"foreignKey:AuthorID"`
}

// OwnerID identifies the contributor with write access to the comment.
func (c *Comment) OwnerID() uint { return c.AuthorID }
