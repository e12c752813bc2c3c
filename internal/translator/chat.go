// Package translator decodes the extension's JSON payloads into the internal
// request models, enforcing field presence and ranges while decoding.
package translator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"webpage-chatter/internal/models"
)

// ValidationError reports a payload that is valid JSON but does not satisfy
// the request schema.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err was caused by a schema violation.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func missing(field string) error {
	return &ValidationError{Field: field, Reason: "field required"}
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// schemaError converts a type mismatch reported by encoding/json into a
// ValidationError naming the offending field.
func schemaError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			return invalid("", "request body must be a JSON object")
		}
		return invalid(field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
	}
	return invalid("", err.Error())
}

// ChatPayload is the body of /api/chat and /api/chat/stream.
type ChatPayload struct {
	models.ChatRequest
}

// UnmarshalJSON implements custom parsing to enforce validation.
func (p *ChatPayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		APIKey         *string `json:"api_key"`
		WebpageContent *string `json:"webpage_content"`
		Query          *string `json:"query"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return schemaError(err)
	}

	// An empty api_key is left for the credential check, which answers 401.
	if raw.APIKey == nil {
		return missing("api_key")
	}
	if raw.WebpageContent == nil {
		return missing("webpage_content")
	}
	if raw.Query == nil {
		return missing("query")
	}
	if strings.TrimSpace(*raw.WebpageContent) == "" {
		return invalid("webpage_content", "must not be empty")
	}
	if strings.TrimSpace(*raw.Query) == "" {
		return invalid("query", "must not be empty")
	}

	p.ChatRequest = models.ChatRequest{
		APIKey:         *raw.APIKey,
		WebpageContent: *raw.WebpageContent,
		Query:          *raw.Query,
	}
	return nil
}
