package models

import "time"

// Like is one member of a contribution's liking set. The composite primary key
// makes membership unique at the store level.
type Like struct {
	ContributionID uint         `json:"contribution_id" gorm:"primaryKey"`
	UserID         uint         `json:"user_id" gorm:"primaryKey;index"`
	Contribution   Contribution `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	User           User         `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time    `json:"created_at"`
}
