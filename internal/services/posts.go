package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"unicode/utf8"

	"stylevote/internal/models"
	"stylevote/internal/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	MinOptions     = 2
	MaxOptions     = 10
	MaxTitleLength = 200
)

type CreateOptionInput struct {
	ImageURL string         `json:"image_url"`
	URL      string         `json:"url"`
	Label    string         `json:"label"`
	Extra    map[string]any `json:"extra"`
}

type CreatePostInput struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        models.PostType     `json:"type"`
	Options     []CreateOptionInput `json:"options"`
}

// PostService 发帖与删帖。帖子和选项在同一个事务里创建，之后选项不再改变。
type PostService struct {
	db    *gorm.DB
	cache *utils.Cache[uint, models.Post]
}

func NewPostService(conn *gorm.DB, cache *utils.Cache[uint, models.Post]) *PostService {
	return &PostService{db: conn, cache: cache}
}

// Create validates input and stores the post with its options.
func (s *PostService) Create(ctx context.Context, userID uint, in CreatePostInput) (*models.Post, error) {
	post, err := buildPost(userID, in)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		options := post.Options
		post.Options = nil
		if err := tx.Omit(clause.Associations).Create(post).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].PostID = post.ID
		}
		if err := tx.Create(&options).Error; err != nil {
			return err
		}
		post.Options = options
		return nil
	})
	if err != nil {
		return nil, storageError("create post", err)
	}

	slog.Info("post created", "post_id", post.ID, "user_id", userID, "options", len(post.Options))
	return post, nil
}

// Delete removes postID if userID owns it. Options, votes and comments go
// with it through ON DELETE CASCADE.
func (s *PostService) Delete(ctx context.Context, postID, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id", "user_id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if post.UserID != userID {
			return fmt.Errorf("%w: post %d belongs to another user", ErrForbidden, postID)
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
	if err != nil {
		if errors.Is(err, ErrPostNotFound) || errors.Is(err, ErrForbidden) {
			return err
		}
		return storageError("delete post", err)
	}

	s.cache.Delete(postID)
	slog.Info("post deleted", "post_id", postID, "user_id", userID)
	return nil
}

func buildPost(userID uint, in CreatePostInput) (*models.Post, error) {
	title := utils.SanitizeText(in.Title)
	if title == "" {
		return nil, invalidArgument("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return nil, invalidArgument("title must be at most %d characters", MaxTitleLength)
	}

	postType := in.Type
	if postType == "" {
		postType = models.PostTypeChoose
	}
	if !postType.Valid() {
		return nil, invalidArgument("unknown post type %q", in.Type)
	}

	if len(in.Options) < MinOptions || len(in.Options) > MaxOptions {
		return nil, invalidArgument("a post needs %d to %d options, got %d", MinOptions, MaxOptions, len(in.Options))
	}

	options := make([]models.Option, len(in.Options))
	for i, o := range in.Options {
		if !isHTTPURL(o.ImageURL) {
			return nil, invalidArgument("option %d: image_url must be an http(s) url", i+1)
		}
		if o.URL != "" && !isHTTPURL(o.URL) {
			return nil, invalidArgument("option %d: url must be an http(s) url", i+1)
		}
		options[i] = models.Option{
			Position: i,
			ImageURL: o.ImageURL,
			URL:      o.URL,
			Label:    utils.SanitizeText(o.Label),
		}
		if len(o.Extra) > 0 {
			options[i].Extra = datatypes.JSONMap(o.Extra)
		}
	}

	return &models.Post{
		UserID:      userID,
		Type:        postType,
		Title:       title,
		Description: in.Description,
		Options:     options,
	}, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
