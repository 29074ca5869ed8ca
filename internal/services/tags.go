package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode/utf8"

	"inkpost/internal/db"
	apperrors "inkpost/internal/errors"
	"inkpost/internal/models"
	"inkpost/internal/utils"

	lru "github.com/hashicorp/golang-lru/v2"
	"gorm.io/gorm"
)

const (
	MaxTagLength = 50
	tagCacheSize = 1024
)

// NormalizeTagNames trims names, drops a leading '#', removes empties and
// duplicates (case-sensitive) and keeps first-seen order.
func NormalizeTagNames(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	for _, raw := range names {
		name := strings.TrimSpace(raw)
		name = strings.TrimSpace(strings.TrimPrefix(name, "#"))
		name = utils.StripTags(name)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > MaxTagLength {
			return nil, apperrors.Validationf("tag %q is longer than %d characters", name, MaxTagLength)
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// TagService keeps a post's tag set in sync with what authors submit.
// Tags are only ever added to a post, never removed, by reconciliation.
type TagService struct {
	db    *gorm.DB
	cache *lru.Cache[string, models.Tag]
}

func NewTagService(gdb *gorm.DB) *TagService {
	cache, err := lru.New[string, models.Tag](tagCacheSize)
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &TagService{db: gdb, cache: cache}
}

// Reconcile sets the post's tags to the union of its current tags and desired.
func (s *TagService) Reconcile(ctx context.Context, postID uint, desired []string) ([]models.Tag, error) {
	names, err := NormalizeTagNames(desired)
	if err != nil {
		return nil, err
	}

	var tags []models.Tag
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tags, err = s.reconcile(tx, postID, names)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.remember(tags)
	return tags, nil
}

// reconcile runs inside the caller's transaction. names must be normalized.
// Callers pass the result to remember once the transaction commits.
func (s *TagService) reconcile(tx *gorm.DB, postID uint, names []string) ([]models.Tag, error) {
	var post models.Post
	if err := tx.Preload("Tags").First(&post, postID).Error; err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Post not found")
		}
		return nil, fmt.Errorf("load post tags: %w", err)
	}

	all := make([]string, 0, len(post.Tags)+len(names))
	seen := make(map[string]struct{}, cap(all))
	for _, t := range post.Tags {
		if _, ok := seen[t.Name]; !ok {
			seen[t.Name] = struct{}{}
			all = append(all, t.Name)
		}
	}
	for _, n := range names {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			all = append(all, n)
		}
	}

	// fixed creation order so concurrent savers take unique-index locks alike
	sort.Strings(all)

	tags := make([]models.Tag, 0, len(all))
	for _, name := range all {
		tag, err := s.findOrCreate(tx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	if len(tags) == len(post.Tags) {
		// nothing new
		return tags, nil
	}

	if err := tx.Model(&post).Association("Tags").Replace(tags); err != nil {
		return nil, fmt.Errorf("replace post tags: %w", err)
	}
	return tags, nil
}

// findOrCreate resolves a tag by exact name. A concurrent creator may win
// the insert; the savepoint keeps tx usable and the row is re-read.
func (s *TagService) findOrCreate(tx *gorm.DB, name string) (models.Tag, error) {
	if tag, ok := s.cache.Get(name); ok {
		return tag, nil
	}

	var tag models.Tag
	err := tx.Where("name = ?", name).Take(&tag).Error
	if err == nil {
		return tag, nil
	}
	if !apperrors.Is(err, gorm.ErrRecordNotFound) {
		return tag, fmt.Errorf("lookup tag %q: %w", name, err)
	}

	tag = models.Tag{Name: name}
	err = tx.Transaction(func(sp *gorm.DB) error {
		return sp.Create(&tag).Error
	})
	if err == nil {
		return tag, nil
	}
	if !db.IsUniqueViolation(err) {
		return tag, fmt.Errorf("create tag %q: %w", name, err)
	}

	slog.Debug("Tag created concurrently, re-reading", "name", name)
	tag = models.Tag{}
	if err := tx.Where("name = ?", name).Take(&tag).Error; err != nil {
		return tag, fmt.Errorf("re-read tag %q: %w", name, err)
	}
	return tag, nil
}

// remember caches committed tags. Tag rows never change, so entries stay valid.
func (s *TagService) remember(tags []models.Tag) {
	for _, t := range tags {
		s.cache.Add(t.Name, t)
	}
}

