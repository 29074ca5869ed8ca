package models

import (
	"time"
)

// Upvote 每个用户对每篇文章最多一条
type Upvote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_upvote_post_user" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_upvote_post_user;index" json:"user_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
