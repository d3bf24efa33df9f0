package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stylevote/internal/db"
	"stylevote/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteLedger owns the one-vote-per-user-per-post rule.
type VoteLedger struct {
	db *gorm.DB
}

func NewVoteLedger(conn *gorm.DB) *VoteLedger {
	return &VoteLedger{db: conn}
}

// CastVote records userID's vote for optionID within postID.
//
// The existence checks and the insert share one transaction; the insert
// itself is what decides races, through idx_vote_user_post. A second vote
// on the same post, for any option, fails with ErrAlreadyVoted.
func (l *VoteLedger) CastVote(ctx context.Context, postID, userID, optionID uint) (*models.Vote, error) {
	var vote *models.Vote
	err := l.castOnce(ctx, postID, userID, optionID, &vote)
	if err != nil && db.SafeToRetry(err) {
		// 语句没有发出去，重试不会重复写入
		slog.Warn("vote insert not sent, retrying", "post_id", postID, "user_id", userID, "error", err)
		err = l.castOnce(ctx, postID, userID, optionID, &vote)
	}
	if err != nil {
		switch {
		case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrOptionNotFound):
			return nil, err
		case db.IsDuplicateKey(err):
			return nil, fmt.Errorf("%w: user %d on post %d", ErrAlreadyVoted, userID, postID)
		default:
			return nil, storageError("cast vote", err)
		}
	}

	slog.Info("vote cast", "post_id", postID, "user_id", userID, "option_id", optionID, "vote_id", vote.ID)
	return vote, nil
}

func (l *VoteLedger) castOnce(ctx context.Context, postID, userID, optionID uint, out **models.Vote) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrPostNotFound, postID)
			}
			return err
		}

		var option models.Option
		err := tx.Select("id", "post_id").
			Where("id = ? AND post_id = ?", optionID, postID).
			First(&option).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: option %d in post %d", ErrOptionNotFound, optionID, postID)
			}
			return err
		}

		vote := models.Vote{
			UserID:   userID,
			PostID:   postID,
			OptionID: option.ID,
		}
		if err := tx.Omit(clause.Associations).Create(&vote).Error; err != nil {
			return err
		}
		*out = &vote
		return nil
	})
}

// VoteStatus tells whether userID voted on postID and for which option.
func (l *VoteLedger) VoteStatus(ctx context.Context, postID, userID uint) (models.VoteStatus, error) {
	var votes []models.Vote
	err := db.RetryRead(ctx, "vote status", func() error {
		return l.db.WithContext(ctx).
			Select("option_id").
			Where("post_id = ? AND user_id = ?", postID, userID).
			Limit(1).
			Find(&votes).Error
	})
	if err != nil {
		return models.VoteStatus{}, storageError("vote status", err)
	}
	if len(votes) == 0 {
		return models.VoteStatus{}, nil
	}
	optionID := votes[0].OptionID
	return models.VoteStatus{Voted: true, OptionID: &optionID}, nil
}

// VoteStatuses is the batched VoteStatus: post id -> chosen option id, only
// for posts userID voted on.
func (l *VoteLedger) VoteStatuses(ctx context.Context, userID uint, postIDs []uint) (map[uint]uint, error) {
	statuses := make(map[uint]uint)
	if len(postIDs) == 0 {
		return statuses, nil
	}

	var votes []models.Vote
	err := db.RetryRead(ctx, "vote statuses", func() error {
		votes = votes[:0]
		return l.db.WithContext(ctx).
			Select("post_id", "option_id").
			Where("user_id = ? AND post_id IN ?", userID, postIDs).
			Find(&votes).Error
	})
	if err != nil {
		return nil, storageError("vote statuses", err)
	}
	for _, v := range votes {
		statuses[v.PostID] = v.OptionID
	}
	return statuses, nil
}

// UserVotes lists userID's votes, newest first.
func (l *VoteLedger) UserVotes(ctx context.Context, userID uint) ([]models.Vote, error) {
	var votes []models.Vote
	err := db.RetryRead(ctx, "user votes", func() error {
		votes = votes[:0]
		return l.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("created_at DESC, id DESC").
			Find(&votes).Error
	})
	if err != nil {
		return nil, storageError("user votes", err)
	}
	return votes, nil
}
