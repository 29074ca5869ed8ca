package handlers

import (
	"net/http"

	"inkpost/internal/middleware"
	"inkpost/internal/models"
	"inkpost/internal/services"

	"github.com/gin-gonic/gin"
)

// PostHandler serves post listing and CRUD.
type PostHandler struct {
	posts   *services.PostService
	listing *services.ListingService
}

func NewPostHandler(posts *services.PostService, listing *services.ListingService) *PostHandler {
	return &PostHandler{posts: posts, listing: listing}
}

// List 文章列表与搜索 (GET /posts?q=&sortBy=)
func (h *PostHandler) List(c *gin.Context) {
	posts, err := h.listing.List(c.Request.Context(), services.ListFilter{
		Query:  c.Query("q"),
		SortBy: c.Query("sortBy"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// Create 发布文章 (POST /posts)
func (h *PostHandler) Create(c *gin.Context) {
	var req postPayload
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.CurrentUserID(c), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Get 文章详情 (GET /posts/:id)
func (h *PostHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	post, err := h.posts.Get(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Update 编辑文章 (PUT /posts/:id)，仅作者本人
func (h *PostHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var req postPayload
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	post, err := h.posts.Update(c.Request.Context(), id, middleware.CurrentUserID(c), req.input())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete 删除文章 (DELETE /posts/:id)，仅作者本人
func (h *PostHandler) Delete(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.posts.Delete(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "The post has been deleted successfully."})
}

// MyPosts 我的文章 (GET /me/posts?status=)
func (h *PostHandler) MyPosts(c *gin.Context) {
	posts, err := h.posts.ListByAuthor(c.Request.Context(), middleware.CurrentUserID(c), models.PostStatus(c.Query("status")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// MyBookmarks 我的收藏 (GET /me/bookmarks)
func (h *PostHandler) MyBookmarks(c *gin.Context) {
	posts, err := h.posts.ListBookmarked(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}
