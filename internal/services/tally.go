package services

import (
	"context"
	"errors"

	"stylevote/internal/db"
	"stylevote/internal/models"

	"gorm.io/gorm"
)

// TallyEngine counts committed votes. Nothing is cached or stored: every
// figure comes straight from the votes table.
type TallyEngine struct {
	db *gorm.DB
}

func NewTallyEngine(conn *gorm.DB) *TallyEngine {
	return &TallyEngine{db: conn}
}

type optionCount struct {
	OptionID uint
	Count    int64
}

// Tally returns the vote count of each requested option. Options without
// votes are present with 0.
func (e *TallyEngine) Tally(ctx context.Context, optionIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(optionIDs))
	if len(optionIDs) == 0 {
		return counts, nil
	}

	var results []optionCount
	err := db.RetryRead(ctx, "tally", func() error {
		results = results[:0]
		return e.db.WithContext(ctx).
			Model(&models.Vote{}).
			Select("option_id, COUNT(*) AS count").
			Where("option_id IN ?", optionIDs).
			Group("option_id").
			Scan(&results).Error
	})
	if err != nil {
		return nil, storageError("tally", err)
	}

	for _, id := range optionIDs {
		counts[id] = 0
	}
	for _, r := range results {
		counts[r.OptionID] = r.Count
	}
	return counts, nil
}

// TotalVotes sums the votes across postID's options.
func (e *TallyEngine) TotalVotes(ctx context.Context, postID uint) (int64, error) {
	if err := e.requirePost(ctx, postID); err != nil {
		return 0, err
	}

	var total int64
	err := db.RetryRead(ctx, "total votes", func() error {
		return e.db.WithContext(ctx).
			Model(&models.Vote{}).
			Joins("JOIN options ON options.id = votes.option_id").
			Where("options.post_id = ?", postID).
			Count(&total).Error
	})
	if err != nil {
		return 0, storageError("total votes", err)
	}
	return total, nil
}

// PostTally lists every option of postID with its count, in display order.
func (e *TallyEngine) PostTally(ctx context.Context, postID uint) ([]models.OptionTally, error) {
	if err := e.requirePost(ctx, postID); err != nil {
		return nil, err
	}

	var options []models.Option
	err := db.RetryRead(ctx, "post tally", func() error {
		options = options[:0]
		return e.db.WithContext(ctx).
			Select("id").
			Where("post_id = ?", postID).
			Order("position ASC, id ASC").
			Find(&options).Error
	})
	if err != nil {
		return nil, storageError("post tally", err)
	}

	ids := make([]uint, len(options))
	for i, o := range options {
		ids[i] = o.ID
	}
	counts, err := e.Tally(ctx, ids)
	if err != nil {
		return nil, err
	}

	tallies := make([]models.OptionTally, len(ids))
	for i, id := range ids {
		tallies[i] = models.OptionTally{OptionID: id, Count: counts[id]}
	}
	return tallies, nil
}

func (e *TallyEngine) requirePost(ctx context.Context, postID uint) error {
	var post models.Post
	err := db.RetryRead(ctx, "load post", func() error {
		return e.db.WithContext(ctx).Select("id").First(&post, postID).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return storageError("load post", err)
	}
	return nil
}
