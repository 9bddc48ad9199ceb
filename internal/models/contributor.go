package models

import "time"

// Contributor is the tracker-facing identity referenced by projects,
// issues, and comments. It wraps exactly one Account; deleting the
// contributor deletes the account with it.
type Contributor struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	AccountID       uint      `gorm:"uniqueIndex;not null"`
	Age             int       `gorm:"default:18"`
	CanBeContacted  bool      `gorm:"default:false"`
	CanDataBeShared bool      `gorm:"default:false"`
	CreatedAt       time.Time

	Account          Account   `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`
	AuthoredProjects []Project `gorm:"foreignKey:AuthorID"`
	Projects         []Project `gorm:"many2many:project_contributors"`
	AuthoredIssues   []Issue   `gorm:"foreignKey:AuthorID"`
	AssignedIssues   []Issue   `gorm:"foreignKey:AssignedContributorID"`
	AuthoredComments []Comment `gorm:"foreignKey:AuthorID"`
}

// Username returns the login name of the backing account. The Account
// association must be preloaded.
func (c *Contributor) Username() string {
	return c.Account.Username
}
