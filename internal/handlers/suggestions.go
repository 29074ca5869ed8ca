package handlers

import (
	"net/http"

	"inkpost/internal/services"

	"github.com/gin-gonic/gin"
)

// SuggestionHandler serves the best-effort writing helpers. Upstream failures
// come back as empty results with 200.
type SuggestionHandler struct {
	llm     *services.LLMService
	summary *services.SummaryService
	images  *services.ImageSearchService
}

func NewSuggestionHandler(llm *services.LLMService, summary *services.SummaryService, images *services.ImageSearchService) *SuggestionHandler {
	return &SuggestionHandler{llm: llm, summary: summary, images: images}
}

func (h *SuggestionHandler) Titles(c *gin.Context) {
	var req titleSuggestionPayload
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": h.llm.SuggestTitles(c.Request.Context(), req.PartialTitle)})
}

func (h *SuggestionHandler) Tags(c *gin.Context) {
	var req tagSuggestionPayload
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": h.llm.SuggestTags(c.Request.Context(), req.BlogContent)})
}

func (h *SuggestionHandler) Summary(c *gin.Context) {
	var req summaryPayload
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}

	summary, err := h.summary.Summarize(c.Request.Context(), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *SuggestionHandler) Image(c *gin.Context) {
	var req imageSuggestionPayload
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": h.images.Suggest(c.Request.Context(), req.Title)})
}
