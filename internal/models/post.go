package models

import (
	"time"
)

type PostStatus string

const (
	StatusDraft     PostStatus = "DRAFT"
	StatusPublished PostStatus = "PUBLISHED"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

type Post struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Title     string     `gorm:"not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	ImageURL  *string    `json:"image_url"`
	Status    PostStatus `gorm:"size:16;not null;default:'PUBLISHED';index" json:"status"`
	AuthorID  uint       `gorm:"not null;index" json:"author_id"`
	Author    User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Tags      []Tag      `gorm:"many2many:post_tags;" json:"tags"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// 查询时通过 upvote_count 别名填充，不建列
	UpvoteCount int64 `gorm:"->;-:migration" json:"upvote_count"`
}
