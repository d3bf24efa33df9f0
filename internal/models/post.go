package models

import (
	"time"

	"gorm.io/gorm"
)

type PostType string

const (
	PostTypeChoose PostType = "choose"
	PostTypeLook   PostType = "look"
)

// Valid reports whether t is one of the known post types.
func (t PostType) Valid() bool {
	return t == PostTypeChoose || t == PostTypeLook
}

// Post 一组供投票的候选项。选项随帖子一起创建，之后不再增删。
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	Type        PostType  `gorm:"type:varchar(10);not null;default:'choose'" json:"type"`
	Title       string    `gorm:"size:200;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Options     []Option  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"options"`
	Comments    []Comment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BeforeCreate stores an explicit CreatedAt in UTC so created_at orders the
// same on every dialect.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if !p.CreatedAt.IsZero() {
		p.CreatedAt = p.CreatedAt.UTC()
	}
	return nil
}
