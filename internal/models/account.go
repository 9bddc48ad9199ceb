package models

import "time"

// Account is the underlying login identity behind a Contributor.
type Account struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"size:150;uniqueIndex;not null"`
	PasswordHash string    `gorm:"size:128;not null"`
	CreatedAt    time.Time
}
