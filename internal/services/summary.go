package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"inkpost/internal/config"
	apperrors "inkpost/internal/errors"
)

const (
	minSummaryInput = 20
	noSummary       = "No summary available."
)

// SummaryService calls an ApyHub-compatible text summarization endpoint.
type SummaryService struct {
	url    string
	apiKey string
	client *http.Client
}

func NewSummaryService(cfg config.SuggestionConfig) *SummaryService {
	return &SummaryService{
		url:    cfg.SummaryURL,
		apiKey: cfg.SummaryKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type summaryResponse struct {
	Data struct {
		Summary string `json:"summary"`
	} `json:"data"`
}

// Summarize returns a summary of content. Content under 20 characters is a
// validation error; upstream failures yield an empty summary.
func (s *SummaryService) Summarize(ctx context.Context, content string) (string, error) {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) < minSummaryInput {
		return "", apperrors.Validation("Content too short to summarize.")
	}

	summary, err := s.call(ctx, content)
	if err != nil {
		slog.Warn("Summarize failed", "error", err)
		return "", nil
	}
	return summary, nil
}

func (s *SummaryService) call(ctx context.Context, content string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": content})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build summary request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("apy-token", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("summary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("summary request: status %d: %s", resp.StatusCode, snippet)
	}

	var out summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode summary response: %w", err)
	}
	if strings.TrimSpace(out.Data.Summary) == "" {
		return noSummary, nil
	}
	return out.Data.Summary, nil
}
