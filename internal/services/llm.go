package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"inkpost/internal/config"
)

const (
	minTitleInput  = 5
	minTagInput    = 20
	maxTitles      = 3
	maxSuggestTags = 5

	assistantPrompt = "You are a helpful assistant for blog writers."
)

var errLLMNotConfigured = errors.New("llm token not configured")

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// LLMService talks to an OpenAI-compatible chat completion endpoint.
type LLMService struct {
	baseURL string
	token   string
	model   string
	client  *http.Client
}

func NewLLMService(cfg config.SuggestionConfig) *LLMService {
	return &LLMService{
		baseURL: strings.TrimRight(cfg.LLMBaseURL, "/"),
		token:   cfg.LLMToken,
		model:   cfg.LLMModel,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Chat sends one system+user exchange and returns the first choice.
func (s *LLMService) Chat(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if s.token == "" {
		return "", errLLMNotConfigured
	}

	body, err := json.Marshal(ChatRequest{
		Model: s.model,
		Messages: []ChatMessage{
			{Role: "system", Content: assistantPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("chat request: status %d: %s", resp.StatusCode, snippet)
	}

	var out ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", errors.New("chat response has no content")
	}
	return out.Choices[0].Message.Content, nil
}

// SuggestTitles returns up to three titles for a draft topic, or none on any failure.
func (s *LLMService) SuggestTitles(ctx context.Context, partialTitle string) []string {
	partialTitle = strings.TrimSpace(partialTitle)
	if utf8.RuneCountInString(partialTitle) < minTitleInput {
		return []string{}
	}

	prompt := fmt.Sprintf("Suggest 3 catchy, creative, and engaging blog post titles based on this topic: %q. "+
		"Each suggestion should be unique, attention-grabbing, and suitable for a professional blog. "+
		"Separate each suggestion with a newline.", partialTitle)

	content, err := s.Chat(ctx, prompt, 100, 0.8)
	if err != nil {
		slog.Warn("Title suggestion failed", "error", err)
		return []string{}
	}
	return splitSuggestions(content, "\n", maxTitles, false)
}

// SuggestTags returns up to five single-word tags for post content, or none on any failure.
func (s *LLMService) SuggestTags(ctx context.Context, content string) []string {
	content = strings.TrimSpace(content)
	if utf8.RuneCountInString(content) < minTagInput {
		return []string{}
	}

	prompt := "Suggest 5 relevant, single-word tags for the following blog post. " +
		"Only return the tags, separated by commas.\n\nBlog Content: " + content

	out, err := s.Chat(ctx, prompt, 50, 0.7)
	if err != nil {
		slog.Warn("Tag suggestion failed", "error", err)
		return []string{}
	}
	return splitSuggestions(out, ",", maxSuggestTags, true)
}

func splitSuggestions(s, sep string, limit int, stripHash bool) []string {
	out := make([]string, 0, limit)
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if stripHash {
			part = strings.TrimPrefix(part, "#")
		}
		if part == "" {
			continue
		}
		out = append(out, part)
		if len(out) == limit {
			break
		}
	}
	return out
}
