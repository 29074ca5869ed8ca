package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"inkpost/internal/models"
	"inkpost/internal/utils"

	"gorm.io/gorm"
)

const (
	SortCreatedAt = "createdAt"
	SortUpvotes   = "upvotes"

	ExcerptLength = 200
)

type ListFilter struct {
	Query  string
	SortBy string
}

// PostSummary is the listing view of a post.
type PostSummary struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Excerpt     string   `json:"excerpt"`
	ImageURL    *string  `json:"imageUrl"`
	UpvoteCount int64    `json:"upvoteCount"`
	Tags        []string `json:"tags"`
	AuthorName  string   `json:"authorName"`
	CreatedAt   string   `json:"createdAt"`
}

type ListingService struct {
	db *gorm.DB
}

func NewListingService(gdb *gorm.DB) *ListingService {
	return &ListingService{db: gdb}
}

// List returns published posts matching f. Query matches the title or any
// tag name as a case-insensitive substring.
func (s *ListingService) List(ctx context.Context, f ListFilter) ([]PostSummary, error) {
	q := withUpvoteCount(s.db.WithContext(ctx)).
		Where("posts.status = ?", models.StatusPublished)

	if term := strings.ToLower(strings.TrimSpace(f.Query)); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		q = q.Where(`(LOWER(posts.title) LIKE ? ESCAPE '\' OR EXISTS (
			SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id
			WHERE post_tags.post_id = posts.id AND LOWER(tags.name) LIKE ? ESCAPE '\'))`,
			pattern, pattern)
	}

	if f.SortBy == SortUpvotes {
		q = q.Order("upvote_count DESC")
	}
	q = q.Order("posts.created_at DESC").Order("posts.id DESC")

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	out := make([]PostSummary, 0, len(posts))
	for i := range posts {
		out = append(out, summarize(&posts[i]))
	}
	return out, nil
}

// withUpvoteCount selects posts with their upvote count and loads author and tags.
func withUpvoteCount(tx *gorm.DB) *gorm.DB {
	return tx.Model(&models.Post{}).
		Select("posts.*, (SELECT COUNT(*) FROM upvotes WHERE upvotes.post_id = posts.id) AS upvote_count").
		Preload("Author").
		Preload("Tags")
}

func summarize(p *models.Post) PostSummary {
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	sort.Strings(tags)

	author := strings.ToLower(strings.TrimSpace(p.Author.Name))
	if author == "" {
		author = "unknown"
	}

	return PostSummary{
		ID:          p.ID,
		Title:       p.Title,
		Content:     p.Content,
		Excerpt:     utils.Excerpt(p.Content, ExcerptLength),
		ImageURL:    p.ImageURL,
		UpvoteCount: p.UpvoteCount,
		Tags:        tags,
		AuthorName:  author,
		CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern with ESCAPE '\'.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
