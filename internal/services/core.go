package services

import (
	"fmt"

	"stylevote/internal/config"
	"stylevote/internal/models"
	"stylevote/internal/utils"

	"gorm.io/gorm"
)

// Core bundles the vote ledger, tally, ranking, aggregation and authoring
// services over one database handle.
type Core struct {
	Votes      *VoteLedger
	Tally      *TallyEngine
	Ranking    *RankingEngine
	Aggregator *Aggregator
	Posts      *PostService
}

func NewCore(conn *gorm.DB, cfg config.Config) (*Core, error) {
	cache, err := utils.NewCache[uint, models.Post](cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create post cache: %w", err)
	}

	trending := utils.DefaultTrendingConfig
	trending.HalfLife = cfg.TrendingHalfLife
	trending.RecencyScale = cfg.TrendingRecencyScale

	votes := NewVoteLedger(conn)
	tally := NewTallyEngine(conn)
	ranking := NewRankingEngine(conn, trending, cfg.MaxPageSize)
	return &Core{
		Votes:      votes,
		Tally:      tally,
		Ranking:    ranking,
		Aggregator: NewAggregator(conn, votes, tally, ranking, cache),
		Posts:      NewPostService(conn, cache),
	}, nil
}
