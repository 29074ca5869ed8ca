package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"

	"inkpost/internal/models"
	"inkpost/internal/services"
)

// TagNames accepts tags as plain strings or as {"name": ...} objects.
// A JSON null leaves it nil, which means "do not touch tags".
type TagNames []string

func (t *TagNames) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tags must be an array: %w", err)
	}

	names := make([]string, 0, len(raw))
	for _, item := range raw {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			names = append(names, name)
			continue
		}
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("invalid tag %s", item)
		}
		names = append(names, obj.Name)
	}
	*t = names
	return nil
}

type postPayload struct {
	Title    string   `json:"title" binding:"required,max=200"`
	Content  string   `json:"content" binding:"required"`
	ImageURL *string  `json:"imageUrl" binding:"omitempty,max=2048"`
	Status   string   `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
	Tags     TagNames `json:"tags" binding:"omitempty,max=20,dive,tagname"`
}

func (p postPayload) input() services.PostInput {
	return services.PostInput{
		Title:    p.Title,
		Content:  p.Content,
		ImageURL: p.ImageURL,
		Status:   models.PostStatus(p.Status),
		Tags:     p.Tags,
	}
}

type titleSuggestionPayload struct {
	PartialTitle string `json:"partialTitle" binding:"max=200"`
}

type tagSuggestionPayload struct {
	BlogContent string `json:"blogContent"`
}

type summaryPayload struct {
	Content string `json:"content"`
}

type imageSuggestionPayload struct {
	Title string `json:"title" binding:"max=200"`
}
