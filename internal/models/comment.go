package models

import "time"

// Comment is a text reply on a contribution
type Comment struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ContributionID uint      `json:"contribution_id" gorm:"index;not null"`
	AuthorID       uint      `json:"author_id" gorm:"index;not null"`
	Author         User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	Text           string    `json:"text" gorm:"type:text;not null"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateCommentForm defines the comment form body
type CreateCommentForm struct {
	Text string `form:"comment_text" json:"comment_text"`
}
