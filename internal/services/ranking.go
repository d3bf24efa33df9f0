package services

import (
	"context"
	"sort"
	"time"

	"stylevote/internal/db"
	"stylevote/internal/models"
	"stylevote/internal/utils"

	"gorm.io/gorm"
)

type Order string

const (
	OrderRecent   Order = "recent"
	OrderPopular  Order = "popular"
	OrderTrending Order = "trending"
)

const DefaultMaxPageSize = 100

// ParseOrder maps a filter value to an Order. Empty means recent.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "":
		return OrderRecent, nil
	case OrderRecent, OrderPopular, OrderTrending:
		return Order(s), nil
	}
	return "", invalidArgument("unknown order %q", s)
}

// RankingEngine 负责帖子列表的三种排序和分页。
// 每种排序都是严格全序，同分时 id 大的（更新的）排前面。
type RankingEngine struct {
	db          *gorm.DB
	trending    utils.TrendingConfig
	maxPageSize int
	now         func() time.Time
}

func NewRankingEngine(conn *gorm.DB, trending utils.TrendingConfig, maxPageSize int) *RankingEngine {
	if maxPageSize <= 0 {
		maxPageSize = DefaultMaxPageSize
	}
	return &RankingEngine{
		db:          conn,
		trending:    trending,
		maxPageSize: maxPageSize,
		now:         time.Now,
	}
}

type postTotal struct {
	ID    uint
	Total int64
}

// ListPosts returns one page of post ids in the requested order together
// with the total number of posts. A page past the end is empty, not an
// error. viewerID does not influence ordering.
func (r *RankingEngine) ListPosts(ctx context.Context, viewerID *uint, order Order, page, pageSize int) ([]uint, int64, error) {
	if page <= 0 {
		return nil, 0, invalidArgument("page must be >= 1, got %d", page)
	}
	if pageSize <= 0 || pageSize > r.maxPageSize {
		return nil, 0, invalidArgument("page size must be within 1..%d, got %d", r.maxPageSize, pageSize)
	}
	offset := (page - 1) * pageSize

	var total int64
	err := db.RetryRead(ctx, "count posts", func() error {
		return r.db.WithContext(ctx).Model(&models.Post{}).Count(&total).Error
	})
	if err != nil {
		return nil, 0, storageError("count posts", err)
	}

	var ids []uint
	switch order {
	case OrderRecent:
		ids, err = r.listRecent(ctx, offset, pageSize)
	case OrderPopular:
		ids, err = r.listPopular(ctx, offset, pageSize)
	case OrderTrending:
		ids, err = r.listTrending(ctx, offset, pageSize)
	default:
		return nil, 0, invalidArgument("unknown order %q", order)
	}
	if err != nil {
		return nil, 0, storageError("list posts", err)
	}
	if ids == nil {
		ids = []uint{}
	}
	return ids, total, nil
}

func (r *RankingEngine) listRecent(ctx context.Context, offset, limit int) ([]uint, error) {
	var posts []models.Post
	err := db.RetryRead(ctx, "list recent", func() error {
		posts = posts[:0]
		return r.db.WithContext(ctx).
			Select("id").
			Order("created_at DESC, id DESC").
			Limit(limit).
			Offset(offset).
			Find(&posts).Error
	})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids, nil
}

func (r *RankingEngine) listPopular(ctx context.Context, offset, limit int) ([]uint, error) {
	var rows []postTotal
	err := db.RetryRead(ctx, "list popular", func() error {
		rows = rows[:0]
		return r.totalsQuery(ctx).
			Order("total DESC, posts.id DESC").
			Limit(limit).
			Offset(offset).
			Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids, nil
}

// listTrending scores every post in Go with a single "now", so the blend
// formula and its constants live in utils.TrendingConfig instead of SQL.
func (r *RankingEngine) listTrending(ctx context.Context, offset, limit int) ([]uint, error) {
	var posts []models.Post
	var rows []postTotal
	err := db.RetryRead(ctx, "list trending", func() error {
		posts, rows = posts[:0], rows[:0]
		if err := r.db.WithContext(ctx).Select("id", "created_at").Find(&posts).Error; err != nil {
			return err
		}
		return r.totalsQuery(ctx).Scan(&rows).Error
	})
	if err != nil {
		return nil, err
	}

	totals := make(map[uint]int64, len(rows))
	for _, row := range rows {
		totals[row.ID] = row.Total
	}

	type scored struct {
		id    uint
		score float64
	}
	now := r.now()
	ranked := make([]scored, len(posts))
	for i, p := range posts {
		ranked[i] = scored{id: p.ID, score: r.trending.TrendingScore(totals[p.ID], p.CreatedAt, now)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].id > ranked[j].id
	})

	if offset >= len(ranked) {
		return []uint{}, nil
	}
	end := min(offset+limit, len(ranked))
	ids := make([]uint, 0, end-offset)
	for _, s := range ranked[offset:end] {
		ids = append(ids, s.id)
	}
	return ids, nil
}

// totalsQuery selects (id, total) per post, counting votes through the
// post's options. Posts without votes come back with total 0.
func (r *RankingEngine) totalsQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("posts").
		Select("posts.id AS id, COUNT(votes.id) AS total").
		Joins("LEFT JOIN options ON options.post_id = posts.id").
		Joins("LEFT JOIN votes ON votes.option_id = options.id").
		Group("posts.id")
}
