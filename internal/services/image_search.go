package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"inkpost/internal/config"
)

const minImageQuery = 3

// ImageSearchService finds a cover image for a title through a Lexica-compatible search API.
type ImageSearchService struct {
	url    string
	client *http.Client
}

func NewImageSearchService(cfg config.SuggestionConfig) *ImageSearchService {
	return &ImageSearchService{
		url:    cfg.ImageSearchURL,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

type imageSearchResponse struct {
	Images []struct {
		Src      string `json:"src"`
		SrcSmall string `json:"srcSmall"`
	} `json:"images"`
}

// Suggest returns the first matching image URL, or "" when there is none
// or the search fails.
func (s *ImageSearchService) Suggest(ctx context.Context, title string) string {
	title = strings.TrimSpace(title)
	if utf8.RuneCountInString(title) < minImageQuery {
		return ""
	}

	imageURL, err := s.search(ctx, title)
	if err != nil {
		slog.Warn("Image search failed", "error", err)
		return ""
	}
	return imageURL
}

func (s *ImageSearchService) search(ctx context.Context, q string) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	params := u.Query()
	params.Set("q", q)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search request: status %d", resp.StatusCode)
	}

	var out imageSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if len(out.Images) == 0 {
		return "", nil
	}
	return out.Images[0].SrcSmall, nil
}
