package models

import "time"

// Contribution is a piece of regional cultural content
type Contribution struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	AuthorID    uint      `json:"author_id" gorm:"index;not null"`
	Author      User      `json:"author" gorm:"constraint:OnDelete:CASCADE"`
	RegionID    uint      `json:"region_id" gorm:"index;not null"`
	Region      Region    `json:"region" gorm:"constraint:OnDelete:CASCADE"`
	Category    Category  `json:"category" gorm:"size:10;index;not null"`
	Text        string    `json:"text" gorm:"type:text"`
	ImagePath   *string   `json:"image_path,omitempty"`
	AudioPath   *string   `json:"audio_path,omitempty"`
	VideoPath   *string   `json:"video_path,omitempty"`
	SubmittedAt time.Time `json:"submitted_at" gorm:"index"`
	Comments    []Comment `json:"comments,omitempty" gorm:"constraint:OnDelete:CASCADE"`
}

// ContributionForm defines the create-post form fields; media arrive as multipart files
type ContributionForm struct {
	RegionID uint   `form:"state" json:"state"`
	Category string `form:"category" json:"category"`
	Text     string `form:"text_content" json:"text_content"`
}
