package services

import (
	"context"

	"stylevote/internal/db"
	"stylevote/internal/models"
	"stylevote/internal/utils"

	"gorm.io/gorm"
)

// Aggregator 把帖子、选项、票数和当前用户的投票状态组装成 PostView。
//
// 帖子和选项创建后不可变，所以它们（"骨架"）可以放进 LRU；票数和投票状态
// 每次都实时查询。
type Aggregator struct {
	db      *gorm.DB
	votes   *VoteLedger
	tally   *TallyEngine
	ranking *RankingEngine
	cache   *utils.Cache[uint, models.Post]
}

func NewAggregator(conn *gorm.DB, votes *VoteLedger, tally *TallyEngine, ranking *RankingEngine, cache *utils.Cache[uint, models.Post]) *Aggregator {
	return &Aggregator{
		db:      conn,
		votes:   votes,
		tally:   tally,
		ranking: ranking,
		cache:   cache,
	}
}

// Hydrate builds the view of a single post for viewerID (nil = anonymous).
func (a *Aggregator) Hydrate(ctx context.Context, postID uint, viewerID *uint) (*models.PostView, error) {
	views, err := a.HydratePage(ctx, []uint{postID}, viewerID)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrPostNotFound
	}
	return &views[0], nil
}

// HydratePage builds views for postIDs in the given order with a fixed
// number of queries regardless of page length. Ids whose post no longer
// exists are skipped. On any failure, including cancellation, nothing is
// returned.
func (a *Aggregator) HydratePage(ctx context.Context, postIDs []uint, viewerID *uint) ([]models.PostView, error) {
	views := make([]models.PostView, 0, len(postIDs))
	if len(postIDs) == 0 {
		return views, nil
	}

	skeletons, err := a.loadSkeletons(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	var optionIDs []uint
	var foundIDs []uint
	for _, id := range postIDs {
		post, ok := skeletons[id]
		if !ok {
			continue
		}
		foundIDs = append(foundIDs, id)
		for _, o := range post.Options {
			optionIDs = append(optionIDs, o.ID)
		}
	}
	if len(foundIDs) == 0 {
		return views, nil
	}

	counts, err := a.tally.Tally(ctx, optionIDs)
	if err != nil {
		return nil, err
	}

	statuses := map[uint]uint{}
	if viewerID != nil {
		statuses, err = a.votes.VoteStatuses(ctx, *viewerID, foundIDs)
		if err != nil {
			return nil, err
		}
	}

	commentCounts, err := a.commentCounts(ctx, foundIDs)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, id := range foundIDs {
		post := skeletons[id]
		view := models.PostView{
			ID:              post.ID,
			UserID:          post.UserID,
			Type:            post.Type,
			Title:           post.Title,
			Description:     post.Description,
			DescriptionHTML: utils.RenderMarkdown(post.Description),
			CreatedAt:       post.CreatedAt,
			Options:         make([]models.OptionView, len(post.Options)),
			CommentCount:    commentCounts[id],
		}
		voted, hasVoted := statuses[id]
		if hasVoted {
			optionID := voted
			view.HasVoted = true
			view.VotedOptionID = &optionID
		}
		for i, o := range post.Options {
			view.Options[i] = models.OptionView{
				ID:         o.ID,
				PostID:     o.PostID,
				Position:   o.Position,
				URL:        o.URL,
				ImageURL:   o.ImageURL,
				Label:      o.Label,
				Extra:      o.Extra,
				VotesCount: counts[o.ID],
				Voted:      hasVoted && voted == o.ID,
			}
			view.TotalVotes += counts[o.ID]
		}
		views = append(views, view)
	}
	return views, nil
}

// Feed is ListPosts followed by HydratePage.
func (a *Aggregator) Feed(ctx context.Context, viewerID *uint, order Order, page, pageSize int) ([]models.PostView, int64, error) {
	ids, total, err := a.ranking.ListPosts(ctx, viewerID, order, page, pageSize)
	if err != nil {
		return nil, 0, err
	}
	views, err := a.HydratePage(ctx, ids, viewerID)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// UserPosts lists userID's own posts, newest first.
func (a *Aggregator) UserPosts(ctx context.Context, userID uint, viewerID *uint) ([]models.PostView, error) {
	var posts []models.Post
	err := db.RetryRead(ctx, "user posts", func() error {
		posts = posts[:0]
		return a.db.WithContext(ctx).
			Select("id").
			Where("user_id = ?", userID).
			Order("created_at DESC, id DESC").
			Find(&posts).Error
	})
	if err != nil {
		return nil, storageError("user posts", err)
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return a.HydratePage(ctx, ids, viewerID)
}

// VotedPosts lists the posts userID voted on, most recent vote first.
func (a *Aggregator) VotedPosts(ctx context.Context, userID uint) ([]models.PostView, error) {
	votes, err := a.votes.UserVotes(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(votes))
	for i, v := range votes {
		ids[i] = v.PostID
	}
	return a.HydratePage(ctx, ids, &userID)
}

// loadSkeletons returns the post + options of every id that still exists.
// Existence is always checked against the database; the cache only saves
// reloading the options.
func (a *Aggregator) loadSkeletons(ctx context.Context, postIDs []uint) (map[uint]models.Post, error) {
	var live []uint
	err := db.RetryRead(ctx, "check posts", func() error {
		live = live[:0]
		return a.db.WithContext(ctx).
			Model(&models.Post{}).
			Where("id IN ?", postIDs).
			Pluck("id", &live).Error
	})
	if err != nil {
		return nil, storageError("check posts", err)
	}

	exists := make(map[uint]bool, len(live))
	for _, id := range live {
		exists[id] = true
	}

	skeletons := make(map[uint]models.Post, len(live))
	var missing []uint
	for _, id := range postIDs {
		if !exists[id] {
			// 可能是别的实例删掉的
			a.cache.Delete(id)
			continue
		}
		if _, seen := skeletons[id]; seen {
			continue
		}
		if post, ok := a.cache.Get(id); ok {
			skeletons[id] = post
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return skeletons, nil
	}

	var posts []models.Post
	err = db.RetryRead(ctx, "load posts", func() error {
		posts = posts[:0]
		return a.db.WithContext(ctx).
			Preload("Options", func(tx *gorm.DB) *gorm.DB {
				return tx.Order("position ASC, id ASC")
			}).
			Where("id IN ?", missing).
			Find(&posts).Error
	})
	if err != nil {
		return nil, storageError("load posts", err)
	}
	for _, p := range posts {
		skeletons[p.ID] = p
		a.cache.Set(p.ID, p)
	}
	return skeletons, nil
}

type postCount struct {
	PostID uint
	Count  int64
}

// commentCounts 批量统计评论数
func (a *Aggregator) commentCounts(ctx context.Context, postIDs []uint) (map[uint]int64, error) {
	var results []postCount
	err := db.RetryRead(ctx, "comment counts", func() error {
		results = results[:0]
		return a.db.WithContext(ctx).
			Model(&models.Comment{}).
			Select("post_id, COUNT(*) AS count").
			Where("post_id IN ?", postIDs).
			Group("post_id").
			Scan(&results).Error
	})
	if err != nil {
		return nil, storageError("comment counts", err)
	}

	counts := make(map[uint]int64, len(results))
	for _, r := range results {
		counts[r.PostID] = r.Count
	}
	return counts, nil
}
