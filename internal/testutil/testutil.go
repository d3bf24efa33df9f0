package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"stylevote/internal/config"
	"stylevote/internal/db"
	"stylevote/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var dbSeq atomic.Int64

// GetTestConfig returns a config pointing at a private in-memory sqlite
// database.
func GetTestConfig() config.Config {
	cfg := config.Default()
	cfg.DatabaseType = config.DatabaseSQLite
	cfg.DatabaseURL = fmt.Sprintf("file:stylevote_test_%d?mode=memory", dbSeq.Add(1))
	return cfg
}

// SetupTestDB opens a fresh, fully migrated database for one test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.Open(GetTestConfig())
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// CreateTestPost stores a post owned by userID with one option per label.
func CreateTestPost(t *testing.T, conn *gorm.DB, userID uint, createdAt time.Time, labels ...string) models.Post {
	t.Helper()

	if len(labels) == 0 {
		labels = []string{"A", "B"}
	}
	post := models.Post{
		UserID:    userID,
		Type:      models.PostTypeChoose,
		Title:     "Which one?",
		CreatedAt: createdAt,
	}
	if err := conn.Omit(clause.Associations).Create(&post).Error; err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}

	options := make([]models.Option, len(labels))
	for i, label := range labels {
		options[i] = models.Option{
			PostID:   post.ID,
			Position: i,
			ImageURL: fmt.Sprintf("https://img.example.com/%d/%d.jpg", post.ID, i),
			Label:    label,
		}
	}
	if err := conn.Create(&options).Error; err != nil {
		t.Fatalf("Failed to create test options: %v", err)
	}
	post.Options = options
	return post
}

// AddTestVotes inserts n votes for option from users firstUserID..firstUserID+n-1.
func AddTestVotes(t *testing.T, conn *gorm.DB, option models.Option, firstUserID uint, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		vote := models.Vote{
			UserID:   firstUserID + uint(i),
			PostID:   option.PostID,
			OptionID: option.ID,
		}
		if err := conn.Omit(clause.Associations).Create(&vote).Error; err != nil {
			t.Fatalf("Failed to create test vote: %v", err)
		}
	}
}

// AddTestComments inserts n comments on postID.
func AddTestComments(t *testing.T, conn *gorm.DB, postID uint, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		comment := models.Comment{PostID: postID, UserID: 1, Text: "nice"}
		if err := conn.Create(&comment).Error; err != nil {
			t.Fatalf("Failed to create test comment: %v", err)
		}
	}
}

// CountVotes counts rows in votes for (userID, postID).
func CountVotes(t *testing.T, conn *gorm.DB, userID, postID uint) int64 {
	t.Helper()

	var n int64
	err := conn.Model(&models.Vote{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&n).Error
	if err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}
