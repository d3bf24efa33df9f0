package models

import (
	"gorm.io/datatypes"
)

// Option 帖子中的一个候选项。展示字段对投票核心是不透明的。
type Option struct {
	ID       uint              `gorm:"primaryKey" json:"id"`
	PostID   uint              `gorm:"not null;index" json:"post_id"`
	Position int               `gorm:"not null;default:0" json:"position"`
	URL      string            `gorm:"size:2048" json:"url"`
	ImageURL string            `gorm:"size:2048;not null" json:"image_url"`
	Label    string            `gorm:"size:200" json:"label"`
	Extra    datatypes.JSONMap `json:"extra"` // siteName, price, store ...
	Votes    []Vote            `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}
