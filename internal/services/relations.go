package services

import (
	"context"
	"fmt"

	"inkpost/internal/db"
	apperrors "inkpost/internal/errors"
	"inkpost/internal/models"

	"gorm.io/gorm"
)

// RelationKind names a per-user, per-post relation table.
type RelationKind string

const (
	KindUpvote   RelationKind = "upvote"
	KindBookmark RelationKind = "bookmark"
)

// RelationStatus is the aggregate a post page shows for one relation.
type RelationStatus struct {
	Count    int64
	HasActed bool
}

// RelationService toggles and counts one relation kind.
// Counts are always computed from rows; nothing is cached.
type RelationService struct {
	db     *gorm.DB
	kind   RelationKind
	newRow func(postID, userID uint) any
	dupMsg string
}

func NewUpvoteService(gdb *gorm.DB) *RelationService {
	return &RelationService{
		db:   gdb,
		kind: KindUpvote,
		newRow: func(postID, userID uint) any {
			return &models.Upvote{PostID: postID, UserID: userID}
		},
		dupMsg: "Already upvoted",
	}
}

func NewBookmarkService(gdb *gorm.DB) *RelationService {
	return &RelationService{
		db:   gdb,
		kind: KindBookmark,
		newRow: func(postID, userID uint) any {
			return &models.Bookmark{PostID: postID, UserID: userID}
		},
		dupMsg: "Already bookmarked",
	}
}

func (s *RelationService) Kind() RelationKind {
	return s.kind
}

// Status returns the relation count for a post and whether userID holds one.
// userID 0 is an anonymous viewer.
func (s *RelationService) Status(ctx context.Context, postID, userID uint) (RelationStatus, error) {
	var st RelationStatus
	tx := s.db.WithContext(ctx)

	if err := ensurePost(tx, postID, userID); err != nil {
		return st, err
	}

	if err := tx.Model(s.newRow(0, 0)).Where("post_id = ?", postID).Count(&st.Count).Error; err != nil {
		return st, fmt.Errorf("count %ss: %w", s.kind, err)
	}

	if userID != 0 {
		var mine int64
		if err := tx.Model(s.newRow(0, 0)).Where("post_id = ? AND user_id = ?", postID, userID).Count(&mine).Error; err != nil {
			return st, fmt.Errorf("lookup %s: %w", s.kind, err)
		}
		st.HasActed = mine > 0
	}
	return st, nil
}

// Add records the relation. A second add, sequential or concurrent, fails
// with AlreadyExists through the unique index on (post_id, user_id).
func (s *RelationService) Add(ctx context.Context, postID, userID uint) error {
	if userID == 0 {
		return apperrors.Unauthorized("Unauthorized")
	}
	tx := s.db.WithContext(ctx)

	if err := ensurePost(tx, postID, userID); err != nil {
		return err
	}

	if err := tx.Create(s.newRow(postID, userID)).Error; err != nil {
		if db.IsUniqueViolation(err) {
			return apperrors.AlreadyExists(s.dupMsg)
		}
		return fmt.Errorf("create %s: %w", s.kind, err)
	}
	return nil
}

// Remove deletes the relation, or returns NotFound if there was none.
func (s *RelationService) Remove(ctx context.Context, postID, userID uint) error {
	if userID == 0 {
		return apperrors.Unauthorized("Unauthorized")
	}

	res := s.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Delete(s.newRow(0, 0))
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", s.kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound(fmt.Sprintf("No %s found for this post", s.kind))
	}
	return nil
}

// ensurePost checks that postID is visible to viewerID: published, or a
// draft of their own. Anything else reads as missing.
func ensurePost(tx *gorm.DB, postID, viewerID uint) error {
	var n int64
	err := tx.Model(&models.Post{}).
		Where("id = ? AND (status = ? OR author_id = ?)", postID, models.StatusPublished, viewerID).
		Count(&n).Error
	if err != nil {
		return fmt.Errorf("lookup post: %w", err)
	}
	if n == 0 {
		return apperrors.NotFound("Post not found")
	}
	return nil
}
