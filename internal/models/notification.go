package models

import "time"

// Notification verbs
const (
	VerbLiked     = "liked your post"
	VerbCommented = "commented on your post"
	VerbFollowed  = "started following you"
)

// Notification represents a durable social event for a recipient
type Notification struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	RecipientID uint          `json:"recipient_id" gorm:"index;not null"`
	Recipient   User          `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	SenderID    *uint         `json:"sender_id,omitempty" gorm:"index"`
	Sender      *User         `json:"sender,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	Verb        string        `json:"verb" gorm:"size:255;not null"`
	TargetID    *uint         `json:"target_id,omitempty" gorm:"index"`
	Target      *Contribution `json:"target,omitempty" gorm:"constraint:OnDelete:CASCADE"`
	IsRead      bool          `json:"is_read" gorm:"index"`
	Timestamp   time.Time     `json:"timestamp" gorm:"index"`
}
