package services

import (
	"context"
	"testing"
	"time"

	apperrors "inkpost/internal/errors"
	"inkpost/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostService(t *testing.T) (*PostService, *TagService) {
	t.Helper()
	gdb := setupTestDB(t)
	tags := NewTagService(gdb)
	return NewPostService(gdb, tags), tags
}

func strptr(s string) *string { return &s }

func TestPostService_Create(t *testing.T) {
	svc, _ := newPostService(t)
	ctx := context.Background()
	alice := createUser(t, svc.db, "alice@example.com", "Alice")

	got, err := svc.Create(ctx, alice.ID, PostInput{
		Title:    "  <i>First</i> post ",
		Content:  "Hello **world**",
		ImageURL: strptr("https://img.example.com/1.png"),
		Tags:     []string{"#go", "go", " web "},
	})
	require.NoError(t, err)

	assert.NotZero(t, got.ID)
	assert.Equal(t, "First post", got.Title)
	assert.Equal(t, models.StatusPublished, got.Status)
	assert.Equal(t, alice.ID, got.AuthorID)
	assert.Equal(t, []string{"go", "web"}, got.Tags)
	assert.Contains(t, got.ContentHTML, "<strong>world</strong>")
	assert.Equal(t, "alice", got.AuthorName)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, "https://img.example.com/1.png", *got.ImageURL)
}

func TestPostService_CreateValidation(t *testing.T) {
	svc, _ := newPostService(t)
	ctx := context.Background()
	alice := createUser(t, svc.db, "alice@example.com", "Alice")

	_, err := svc.Create(ctx, alice.ID, PostInput{Title: "  ", Content: "body"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.Create(ctx, alice.ID, PostInput{Title: "title", Content: ""})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.Create(ctx, alice.ID, PostInput{Title: "title", Content: "body", Status: "ARCHIVED"})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.Create(ctx, 0, PostInput{Title: "title", Content: "body"})
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	var n int64
	require.NoError(t, svc.db.Model(&models.Post{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPostService_DraftVisibleToAuthorOnly(t *testing.T) {
	svc, _ := newPostService(t)
	ctx := context.Background()
	alice := createUser(t, svc.db, "alice@example.com", "Alice")
	bob := createUser(t, svc.db, "bob@example.com", "Bob")

	draft, err := svc.Create(ctx, alice.ID, PostInput{Title: "WIP", Content: "later", Status: models.StatusDraft})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, draft.Status)

	_, err = svc.Get(ctx, draft.ID, alice.ID)
	assert.NoError(t, err)

	_, err = svc.Get(ctx, draft.ID, bob.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.Get(ctx, draft.ID, 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	_, err = svc.Get(ctx, draft.ID+1000, alice.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestPostService_UpdateMergesTags(t *testing.T) {
	svc, _ := newPostService(t)
	ctx := context.Background()
	alice := createUser(t, svc.db, "alice@example.com", "Alice")

	created, err := svc.Create(ctx, alice.ID, PostInput{
		Title:    "Title",
		Content:  "Body",
		ImageURL: strptr("https://img.example.com/1.png"),
		Tags:     []string{"a", "b"},
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, alice.ID, PostInput{
		Title:   "New title",
		Content: "New body",
		Tags:    []string{"c"},
	})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, "New body", updated.Content)
	assert.Equal(t, []string{"a", "b", "c"}, updated.Tags)
	require.NotNil(t, updated.ImageURL, "image untouched when omitted")

	// no tags field: tag set unchanged; empty image url clears it; status switch
	updated, err = svc.Update(ctx, created.ID, alice.ID, PostInput{
		Title:    "New title",
		Content:  "New body",
		ImageURL: strptr(""),
		Status:   models.StatusDraft,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, updated.Tags)
	assert.Nil(t, updated.ImageURL)
	assert.Equal(t, models.StatusDraft, updated.Status)
}

func TestPostService_UpdateChecks(t *testing.T) {
	svc, _ := newPostService(t)
	ctx := context.Background()
	alice := createUser(t, svc.db, "alice@example.com", "Alice")
	bob := createUser(t, svc.db, "bob@example.com", "Bob")
	post := createPost(t, svc.db, alice.ID, "Mine", withTags("keep"))
	in := PostInput{Title: "Hijack", Content: "x", Tags: []string{"evil"}}

	_, err := svc.Update(ctx, post.ID, 0, in)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.Update(ctx, post.ID, bob.ID, in)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	_, err = svc.Update(ctx, post.ID+1000, alice.ID, in)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	got, err := svc.Get(ctx, post.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "Mine", got.Title)
	assert.Equal(t, []string{"keep"}, got.Tags)

	var n int64
	require.NoError(t, svc.db.Model(&models.Tag{}).Where("name = ?", "evil").Count(&n).Error)
	assert.Zero(t, n, "rejected update leaves no tag rows behind")
}

func TestPostService_Delete(t *testing.T) {
	svc, _ := newPostService(t)
	ctx := context.Background()
	alice := createUser(t, svc.db, "alice@example.com", "Alice")
	bob := createUser(t, svc.db, "bob@example.com", "Bob")
	post := createPost(t, svc.db, alice.ID, "Doomed", withTags("survivor"))
	other := createPost(t, svc.db, alice.ID, "Other", withTags("survivor"))

	upvotes := NewUpvoteService(svc.db)
	bookmarks := NewBookmarkService(svc.db)
	require.NoError(t, upvotes.Add(ctx, post.ID, bob.ID))
	require.NoError(t, bookmarks.Add(ctx, post.ID, bob.ID))
	require.NoError(t, upvotes.Add(ctx, other.ID, bob.ID))

	err := svc.Delete(ctx, post.ID, bob.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrForbidden))

	require.NoError(t, svc.Delete(ctx, post.ID, alice.ID))

	_, err = svc.Get(ctx, post.ID, alice.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	var n int64
	require.NoError(t, svc.db.Model(&models.Upvote{}).Where("post_id = ?", post.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, svc.db.Model(&models.Bookmark{}).Where("post_id = ?", post.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, svc.db.Table("post_tags").Where("post_id = ?", post.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, svc.db.Model(&models.Tag{}).Count(&n).Error)
	assert.Equal(t, int64(1), n, "tags survive")

	st, err := upvotes.Status(ctx, other.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, RelationStatus{Count: 1, HasActed: true}, st)

	err = svc.Delete(ctx, post.ID, alice.ID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestPostService_ListByAuthor(t *testing.T) {
	svc, _ := newPostService(t)
	ctx := context.Background()
	alice := createUser(t, svc.db, "alice@example.com", "Alice")
	bob := createUser(t, svc.db, "bob@example.com", "Bob")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	pub := createPost(t, svc.db, alice.ID, "Published", createdAt(base))
	draft := createPost(t, svc.db, alice.ID, "Draft", withStatus(models.StatusDraft), createdAt(base.Add(time.Hour)))
	createPost(t, svc.db, bob.ID, "Bob's")

	all, err := svc.ListByAuthor(ctx, alice.ID, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, draft.ID, all[0].ID)
	assert.Equal(t, pub.ID, all[1].ID)

	drafts, err := svc.ListByAuthor(ctx, alice.ID, models.StatusDraft)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, models.StatusDraft, drafts[0].Status)

	_, err = svc.ListByAuthor(ctx, alice.ID, "OTHER")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))

	_, err = svc.ListByAuthor(ctx, 0, "")
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestPostService_ListBookmarked(t *testing.T) {
	svc, _ := newPostService(t)
	ctx := context.Background()
	alice := createUser(t, svc.db, "alice@example.com", "Alice")
	bob := createUser(t, svc.db, "bob@example.com", "Bob")

	first := createPost(t, svc.db, alice.ID, "First")
	second := createPost(t, svc.db, alice.ID, "Second")
	hidden := createPost(t, svc.db, alice.ID, "Hidden draft")
	createPost(t, svc.db, alice.ID, "Not bookmarked")

	bookmarks := NewBookmarkService(svc.db)
	require.NoError(t, bookmarks.Add(ctx, first.ID, bob.ID))
	require.NoError(t, bookmarks.Add(ctx, second.ID, bob.ID))
	require.NoError(t, bookmarks.Add(ctx, hidden.ID, bob.ID))
	require.NoError(t, svc.db.Model(&hidden).Update("status", models.StatusDraft).Error)

	list, err := svc.ListBookmarked(ctx, bob.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{first.ID, second.ID}, ids(list))

	mine, err := svc.ListBookmarked(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, mine)
}
