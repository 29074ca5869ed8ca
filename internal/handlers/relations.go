package handlers

import (
	"net/http"

	"inkpost/internal/middleware"
	"inkpost/internal/services"

	"github.com/gin-gonic/gin"
)

// RelationHandler exposes one relation kind (upvote or bookmark) on a post.
type RelationHandler struct {
	svc       *services.RelationService
	countKey  string
	actedKey  string
	addedMsg  string
	removeMsg string
}

func NewUpvoteHandler(svc *services.RelationService) *RelationHandler {
	return &RelationHandler{
		svc:       svc,
		countKey:  "voteCount",
		actedKey:  "hasUpvoted",
		addedMsg:  "Upvote successful",
		removeMsg: "Upvote removed",
	}
}

func NewBookmarkHandler(svc *services.RelationService) *RelationHandler {
	return &RelationHandler{
		svc:       svc,
		countKey:  "bookmarkCount",
		actedKey:  "hasBookmarked",
		addedMsg:  "Bookmark successful",
		removeMsg: "Bookmark removed",
	}
}

// Status 返回计数以及当前用户是否已操作
func (h *RelationHandler) Status(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	st, err := h.svc.Status(c.Request.Context(), id, middleware.CurrentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		h.countKey: st.Count,
		h.actedKey: st.HasActed,
	})
}

func (h *RelationHandler) Add(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.svc.Add(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": h.addedMsg})
}

func (h *RelationHandler) Remove(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	if err := h.svc.Remove(c.Request.Context(), id, middleware.CurrentUserID(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": h.removeMsg})
}
