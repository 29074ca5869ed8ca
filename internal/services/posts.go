package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "inkpost/internal/errors"
	"inkpost/internal/models"
	"inkpost/internal/utils"

	"gorm.io/gorm"
)

// PostInput carries author-editable fields. A nil Tags leaves tags untouched;
// a nil ImageURL leaves the image untouched and an empty one clears it.
type PostInput struct {
	Title    string
	Content  string
	ImageURL *string
	Status   models.PostStatus
	Tags     []string
}

// PostDetail is the single-post view.
type PostDetail struct {
	PostSummary
	Status      models.PostStatus `json:"status"`
	ContentHTML string            `json:"contentHtml"`
	AuthorID    uint              `json:"authorId"`
	UpdatedAt   string            `json:"updatedAt"`
}

type PostService struct {
	db   *gorm.DB
	tags *TagService
}

func NewPostService(gdb *gorm.DB, tags *TagService) *PostService {
	return &PostService{db: gdb, tags: tags}
}

func (in *PostInput) normalize() ([]string, error) {
	in.Title = utils.StripTags(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.Title == "" || in.Content == "" {
		return nil, apperrors.Validation("Title and content are required")
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, apperrors.Validationf("invalid status %q", in.Status)
	}
	if in.ImageURL != nil {
		trimmed := strings.TrimSpace(*in.ImageURL)
		in.ImageURL = &trimmed
	}
	if in.Tags == nil {
		return nil, nil
	}
	names, err := NormalizeTagNames(in.Tags)
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Create stores a new post and its initial tags in one transaction.
func (s *PostService) Create(ctx context.Context, authorID uint, in PostInput) (*PostDetail, error) {
	if authorID == 0 {
		return nil, apperrors.Unauthorized("Unauthorized")
	}
	names, err := in.normalize()
	if err != nil {
		return nil, err
	}

	post := models.Post{
		Title:    in.Title,
		Content:  in.Content,
		Status:   models.StatusPublished,
		AuthorID: authorID,
	}
	if in.Status != "" {
		post.Status = in.Status
	}
	if in.ImageURL != nil && *in.ImageURL != "" {
		post.ImageURL = in.ImageURL
	}

	var tags []models.Tag
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Author").Create(&post).Error; err != nil {
			return fmt.Errorf("create post: %w", err)
		}
		if len(names) == 0 {
			return nil
		}
		var err error
		tags, err = s.tags.reconcile(tx, post.ID, names)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.tags.remember(tags)

	return s.Get(ctx, post.ID, authorID)
}

// Get loads one post. Drafts are only visible to their author.
func (s *PostService) Get(ctx context.Context, postID, viewerID uint) (*PostDetail, error) {
	var post models.Post
	err := withUpvoteCount(s.db.WithContext(ctx)).
		Where("posts.id = ?", postID).
		Take(&post).Error
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Blog not found")
		}
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post.Status == models.StatusDraft && post.AuthorID != viewerID {
		return nil, apperrors.NotFound("Blog not found")
	}

	d := detail(&post)
	return &d, nil
}

// Update edits an owned post. Submitted tags are merged into the existing set.
func (s *PostService) Update(ctx context.Context, postID, actorID uint, in PostInput) (*PostDetail, error) {
	if actorID == 0 {
		return nil, apperrors.Unauthorized("Unauthorized")
	}
	names, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var tags []models.Tag
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := ownedPost(tx, postID, actorID)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"title":   in.Title,
			"content": in.Content,
		}
		if in.ImageURL != nil {
			if *in.ImageURL == "" {
				updates["image_url"] = nil
			} else {
				updates["image_url"] = *in.ImageURL
			}
		}
		if in.Status != "" {
			updates["status"] = in.Status
		}
		if err := tx.Model(post).Omit("Tags", "Author").Updates(updates).Error; err != nil {
			return fmt.Errorf("update post: %w", err)
		}

		if names == nil {
			return nil
		}
		tags, err = s.tags.reconcile(tx, post.ID, names)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.tags.remember(tags)

	return s.Get(ctx, postID, actorID)
}

// Delete removes an owned post with its upvotes, bookmarks and tag links.
// Tag rows are kept.
func (s *PostService) Delete(ctx context.Context, postID, actorID uint) error {
	if actorID == 0 {
		return apperrors.Unauthorized("Unauthorized")
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := ownedPost(tx, postID, actorID)
		if err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Upvote{}).Error; err != nil {
			return fmt.Errorf("delete upvotes: %w", err)
		}
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.Bookmark{}).Error; err != nil {
			return fmt.Errorf("delete bookmarks: %w", err)
		}
		if err := tx.Model(post).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear post tags: %w", err)
		}
		if err := tx.Delete(post).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
}

// ListByAuthor returns the author's posts, newest first. An empty status
// returns drafts and published posts alike.
func (s *PostService) ListByAuthor(ctx context.Context, authorID uint, status models.PostStatus) ([]PostDetail, error) {
	if authorID == 0 {
		return nil, apperrors.Unauthorized("Unauthorized")
	}
	if status != "" && !status.Valid() {
		return nil, apperrors.Validationf("invalid status %q", status)
	}

	q := withUpvoteCount(s.db.WithContext(ctx)).Where("posts.author_id = ?", authorID)
	if status != "" {
		q = q.Where("posts.status = ?", status)
	}

	var posts []models.Post
	if err := q.Order("posts.created_at DESC").Order("posts.id DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list author posts: %w", err)
	}

	out := make([]PostDetail, 0, len(posts))
	for i := range posts {
		out = append(out, detail(&posts[i]))
	}
	return out, nil
}

// ListBookmarked returns the posts userID bookmarked, most recent bookmark first.
// Other authors' drafts are skipped.
func (s *PostService) ListBookmarked(ctx context.Context, userID uint) ([]PostSummary, error) {
	if userID == 0 {
		return nil, apperrors.Unauthorized("Unauthorized")
	}

	var posts []models.Post
	err := withUpvoteCount(s.db.WithContext(ctx)).
		Joins("JOIN bookmarks ON bookmarks.post_id = posts.id").
		Where("bookmarks.user_id = ?", userID).
		Where("(posts.status = ? OR posts.author_id = ?)", models.StatusPublished, userID).
		Order("bookmarks.created_at DESC").
		Order("bookmarks.id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	out := make([]PostSummary, 0, len(posts))
	for i := range posts {
		out = append(out, summarize(&posts[i]))
	}
	return out, nil
}

func ownedPost(tx *gorm.DB, postID, actorID uint) (*models.Post, error) {
	var post models.Post
	if err := tx.First(&post, postID).Error; err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Blog not found")
		}
		return nil, fmt.Errorf("load post: %w", err)
	}
	if post.AuthorID != actorID {
		return nil, apperrors.Forbidden("You are not allowed to modify this post.")
	}
	return &post, nil
}

func detail(p *models.Post) PostDetail {
	return PostDetail{
		PostSummary: summarize(p),
		Status:      p.Status,
		ContentHTML: utils.RenderMarkdown(p.Content),
		AuthorID:    p.AuthorID,
		UpdatedAt:   p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
