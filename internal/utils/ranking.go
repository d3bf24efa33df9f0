package utils

import (
	"math"
	"time"
)

// TrendingConfig 热度 = 0.7 * 总票数 + 0.3 * 新鲜度
//
// 新鲜度 = RecencyScale * 2^(-ageHours / HalfLife)，落在 (0, RecencyScale]，
// 随帖子年龄严格递减。RecencyScale = 10 时，一个刚发布的帖子相当于多出约 4 票。
type TrendingConfig struct {
	WeightVotes   float64       // 0.7
	WeightRecency float64       // 0.3
	RecencyScale  float64       // 10
	HalfLife      time.Duration // 24h
}

var DefaultTrendingConfig = TrendingConfig{
	WeightVotes:   0.7,
	WeightRecency: 0.3,
	RecencyScale:  10,
	HalfLife:      24 * time.Hour,
}

// RecencyFactor maps a post's age to a bounded, non-increasing value.
// Negative ages (clock skew) count as brand new.
func (c TrendingConfig) RecencyFactor(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	halfLife := c.HalfLife
	if halfLife <= 0 {
		halfLife = DefaultTrendingConfig.HalfLife
	}
	return c.RecencyScale * math.Exp2(-age.Hours()/halfLife.Hours())
}

// TrendingScore blends vote total and recency as of now.
func (c TrendingConfig) TrendingScore(totalVotes int64, createdAt, now time.Time) float64 {
	return c.WeightVotes*float64(totalVotes) + c.WeightRecency*c.RecencyFactor(now.Sub(createdAt))
}
