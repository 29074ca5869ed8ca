package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"inkpost/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatServer(t *testing.T, reply string, status int, seen *ChatRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		if seen != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		var resp ChatResponse
		resp.Choices = make([]struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		}, 1)
		resp.Choices[0].Message.Content = reply
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestLLM(url string) *LLMService {
	return NewLLMService(config.SuggestionConfig{
		LLMBaseURL: url + "/",
		LLMToken:   "test-token",
		LLMModel:   "test-model",
	})
}

func TestLLMService_SuggestTitles(t *testing.T) {
	var req ChatRequest
	server := chatServer(t, "Title One\n\n  Title Two \nTitle Three\nTitle Four", http.StatusOK, &req)
	s := newTestLLM(server.URL)

	got := s.SuggestTitles(context.Background(), "golang generics")
	assert.Equal(t, []string{"Title One", "Title Two", "Title Three"}, got)

	assert.Equal(t, "test-model", req.Model)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Contains(t, req.Messages[1].Content, `"golang generics"`)
	assert.Equal(t, 100, req.MaxTokens)
}

func TestLLMService_SuggestTitlesShortInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream must not be called for short input")
	}))
	defer server.Close()

	got := newTestLLM(server.URL).SuggestTitles(context.Background(), "abcd")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLLMService_SuggestTags(t *testing.T) {
	server := chatServer(t, "#go, concurrency , ,#web,api,testing,extra", http.StatusOK, nil)
	s := newTestLLM(server.URL)

	got := s.SuggestTags(context.Background(), "A long enough blog post about goroutines")
	assert.Equal(t, []string{"go", "concurrency", "web", "api", "testing"}, got)

	assert.Empty(t, s.SuggestTags(context.Background(), "too short"))
}

func TestLLMService_FailuresDegradeToEmpty(t *testing.T) {
	server := chatServer(t, "", http.StatusInternalServerError, nil)
	s := newTestLLM(server.URL)
	assert.Equal(t, []string{}, s.SuggestTitles(context.Background(), "a valid topic"))

	empty := chatServer(t, "   ", http.StatusOK, nil)
	assert.Equal(t, []string{}, newTestLLM(empty.URL).SuggestTags(context.Background(), "content that is long enough for tags"))

	unconfigured := NewLLMService(config.SuggestionConfig{LLMBaseURL: server.URL})
	_, err := unconfigured.Chat(context.Background(), "hi", 10, 0)
	assert.ErrorIs(t, err, errLLMNotConfigured)
	assert.Equal(t, []string{}, unconfigured.SuggestTitles(context.Background(), "a valid topic"))
}
