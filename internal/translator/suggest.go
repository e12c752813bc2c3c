package translator

import (
	"encoding/json"
	"fmt"
	"strings"

	"webpage-chatter/internal/models"
)

const (
	DefaultSuggestionCount = 5
	MinSuggestionCount     = 1
	MaxSuggestionCount     = 10
)

// SuggestionsPayload is the body of /api/suggest-questions.
type SuggestionsPayload struct {
	models.SuggestionsRequest
}

// UnmarshalJSON implements custom parsing to enforce validation.
func (p *SuggestionsPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		APIKey                 *string          `json:"api_key"`
		WebpageContent         *string          `json:"webpage_content"`
		Count                  *int             `json:"count"`
		ConversationHistory    []models.Message `json:"conversation_history"`
		UseConversationContext bool             `json:"use_conversation_context"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return schemaError(err)
	}

	if raw.APIKey == nil {
		return missing("api_key")
	}
	if raw.WebpageContent == nil {
		return missing("webpage_content")
	}
	if strings.TrimSpace(*raw.WebpageContent) == "" {
		return invalid("webpage_content", "must not be empty")
	}

	count := DefaultSuggestionCount
	if raw.Count != nil {
		count = *raw.Count
	}
	if count < MinSuggestionCount || count > MaxSuggestionCount {
		return invalid("count", fmt.Sprintf("must be between %d and %d, got %d", MinSuggestionCount, MaxSuggestionCount, count))
	}

	history := make([]models.Message, 0, len(raw.ConversationHistory))
	for _, msg := range raw.ConversationHistory {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		history = append(history, models.Message{
			Role:    strings.ToLower(strings.TrimSpace(msg.Role)),
			Content: msg.Content,
		})
	}

	p.SuggestionsRequest = models.SuggestionsRequest{
		APIKey:                 *raw.APIKey,
		WebpageContent:         *raw.WebpageContent,
		Count:                  count,
		ConversationHistory:    history,
		UseConversationContext: raw.UseConversationContext,
	}
	return nil
}
