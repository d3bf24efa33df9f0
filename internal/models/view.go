package models

import (
	"html/template"
	"time"

	"gorm.io/datatypes"
)

// OptionView 是读取时组装的选项视图，票数和当前用户状态都不落库。
type OptionView struct {
	ID         uint              `json:"id"`
	PostID     uint              `json:"post_id"`
	Position   int               `json:"position"`
	URL        string            `json:"url"`
	ImageURL   string            `json:"image_url"`
	Label      string            `json:"label"`
	Extra      datatypes.JSONMap `json:"extra,omitempty"`
	VotesCount int64             `json:"votes_count"`
	Voted      bool              `json:"voted"`
}

// PostView 帖子的读模型
type PostView struct {
	ID              uint          `json:"id"`
	UserID          uint          `json:"user_id"`
	Type            PostType      `json:"type"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	DescriptionHTML template.HTML `json:"description_html"`
	CreatedAt       time.Time     `json:"created_at"`
	Options         []OptionView  `json:"options"`
	TotalVotes      int64         `json:"total_votes"`
	CommentCount    int64         `json:"comment_count"`
	HasVoted        bool          `json:"has_voted"`
	VotedOptionID   *uint         `json:"voted_option_id,omitempty"`
}

type VoteStatus struct {
	Voted    bool  `json:"has_voted"`
	OptionID *uint `json:"option_id,omitempty"`
}

type OptionTally struct {
	OptionID uint  `json:"option_id"`
	Count    int64 `json:"count"`
}
