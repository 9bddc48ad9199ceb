package models

import "time"

// Project is a workspace owned by one author with a membership list of
// contributors. The author is added to the membership at creation.
type Project struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"size:100;not null"`
	Description string    `gorm:"size:500"`
	Type        string    `gorm:"size:16"`
	AuthorID    uint      `gorm:"not null;index"`
	CreatedTime time.Time `gorm:"autoCreateTime"`

	Author       Contributor   `gorm:"foreignKey:AuthorID"`
	Contributors []Contributor `gorm:"many2many:project_contributors"`
	Issues       []Issue       `gorm:"foreignKey:ProjectID"`
}

// OwnerID identifies the contributor with write access to the project.
func (p *Project) OwnerID() uint { return p.AuthorID }
