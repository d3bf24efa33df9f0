package models

import (
	"time"

	"gorm.io/gorm"
)

// Vote 用户在一个帖子里的唯一一票。
//
// PostID 由 OptionID 冗余而来，这样 (user_id, post_id) 的唯一索引可以直接在
// votes 表上声明：同一用户在同一帖子的所有选项中最多只有一票。
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index;uniqueIndex:idx_vote_user_post,priority:1" json:"user_id"`
	PostID    uint      `gorm:"not null;index;uniqueIndex:idx_vote_user_post,priority:2" json:"post_id"`
	Post      Post      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	OptionID  uint      `gorm:"not null;index" json:"option_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	if !v.CreatedAt.IsZero() {
		v.CreatedAt = v.CreatedAt.UTC()
	}
	return nil
}
