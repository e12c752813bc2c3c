package provider

import (
	"context"
	"errors"
	"iter"
)

// ErrEmptyPrompt indicates a request without any prompt text.
var ErrEmptyPrompt = errors.New("prompt must not be empty")

// ErrMissingCredential indicates a request without an API key.
var ErrMissingCredential = errors.New("api key must not be empty")

// Request is a single generation call made on behalf of one caller.
type Request struct {
	APIKey string
	Model  string
	Prompt string
}

// Validate checks the request before it is sent upstream.
func (r Request) Validate() error {
	if r.APIKey == "" {
		return ErrMissingCredential
	}
	if r.Prompt == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// Generator defines the remote text generation capability.
type Generator interface {
	Name() string
	// Generate returns the complete response text.
	Generate(ctx context.Context, req Request) (string, error)
	// Stream yields response text fragments in arrival order. The sequence
	// stops at the first error.
	Stream(ctx context.Context, req Request) iter.Seq2[string, error]
}
