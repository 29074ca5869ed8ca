package services

import (
	"fmt"
	"testing"
	"time"

	"inkpost/internal/config"
	"inkpost/internal/db"
	"inkpost/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		URL:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}, true)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, email, name string) models.User {
	t.Helper()
	u := models.User{Email: email, Name: name}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}

type postOpt func(p *models.Post)

func withStatus(s models.PostStatus) postOpt {
	return func(p *models.Post) { p.Status = s }
}

func createdAt(ts time.Time) postOpt {
	return func(p *models.Post) { p.CreatedAt = ts }
}

func withTags(names ...string) postOpt {
	return func(p *models.Post) {
		for _, n := range names {
			p.Tags = append(p.Tags, models.Tag{Name: n})
		}
	}
}

func createPost(t *testing.T, gdb *gorm.DB, authorID uint, title string, opts ...postOpt) models.Post {
	t.Helper()
	p := models.Post{
		Title:    title,
		Content:  "Content of " + title,
		Status:   models.StatusPublished,
		AuthorID: authorID,
	}
	for _, opt := range opts {
		opt(&p)
	}

	tags := p.Tags
	p.Tags = nil
	require.NoError(t, gdb.Omit("Author").Create(&p).Error)

	for _, tag := range tags {
		tag := tag
		require.NoError(t, gdb.Where(models.Tag{Name: tag.Name}).FirstOrCreate(&tag).Error)
		require.NoError(t, gdb.Model(&p).Association("Tags").Append(&tag))
	}
	return p
}

func upvote(t *testing.T, gdb *gorm.DB, postID, userID uint) {
	t.Helper()
	require.NoError(t, gdb.Create(&models.Upvote{PostID: postID, UserID: userID}).Error)
}

func postTagNames(t *testing.T, gdb *gorm.DB, postID uint) []string {
	t.Helper()
	var post models.Post
	require.NoError(t, gdb.Preload("Tags", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("tags.name")
	}).First(&post, postID).Error)

	names := make([]string, 0, len(post.Tags))
	for _, tag := range post.Tags {
		names = append(names, tag.Name)
	}
	return names
}
