package gemini

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"webpage-chatter/internal/config"
	"webpage-chatter/internal/provider"
)

const responseMIMEType = "text/plain"

// ErrStreamTruncated is reported when a stream ends without the model
// signalling a finish reason, which is how a dropped connection surfaces.
var ErrStreamTruncated = errors.New("connection closed before the response finished")

// Compile-time interface guard.
var _ provider.Generator = (*Provider)(nil)

// Provider implements provider.Generator on top of the Gemini API. A client
// is opened per call because every caller brings their own API key.
type Provider struct {
	baseURL    string
	apiVersion string
	client     *http.Client
	logger     *zap.Logger
}

// New constructs a Gemini provider sharing the given HTTP client.
func New(cfg config.UpstreamConfig, client *http.Client, logger *zap.Logger) (*Provider, error) {
	if client == nil {
		return nil, errors.New("http client must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		baseURL:    cfg.BaseURL,
		apiVersion: cfg.APIVersion,
		client:     client,
		logger:     logger,
	}, nil
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) Generate(ctx context.Context, req provider.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	client, err := p.newClient(ctx, req.APIKey)
	if err != nil {
		return "", err
	}

	p.logger.Debug("gemini generate", zap.String("model", req.Model), zap.Int("prompt_bytes", len(req.Prompt)))
	resp, err := client.Models.GenerateContent(ctx, req.Model, buildContents(req.Prompt), buildConfig())
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}

	return resp.Text(), nil
}

func (p *Provider) Stream(ctx context.Context, req provider.Request) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := req.Validate(); err != nil {
			yield("", err)
			return
		}

		client, err := p.newClient(ctx, req.APIKey)
		if err != nil {
			yield("", err)
			return
		}

		p.logger.Debug("gemini stream", zap.String("model", req.Model), zap.Int("prompt_bytes", len(req.Prompt)))
		finished := false
		for resp, err := range client.Models.GenerateContentStream(ctx, req.Model, buildContents(req.Prompt), buildConfig()) {
			if err != nil {
				yield("", fmt.Errorf("gemini stream: %w", err))
				return
			}
			if resp == nil {
				continue
			}
			if finishReason(resp) != "" {
				finished = true
			}
			if !yield(resp.Text(), nil) {
				return
			}
		}

		// The SDK ends the sequence without an error when the body breaks off.
		if finished {
			return
		}
		if err := ctx.Err(); err != nil {
			yield("", fmt.Errorf("gemini stream: %w", err))
			return
		}
		p.logger.Warn("gemini stream ended without a finish reason", zap.String("model", req.Model))
		yield("", fmt.Errorf("gemini stream: %w", ErrStreamTruncated))
	}
}

func finishReason(resp *genai.GenerateContentResponse) genai.FinishReason {
	for _, candidate := range resp.Candidates {
		if candidate != nil && candidate.FinishReason != "" {
			return candidate.FinishReason
		}
	}
	return ""
}

func (p *Provider) newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.client,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    p.baseURL,
			APIVersion: p.apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func buildContents(prompt string) []*genai.Content {
	return []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
}

// buildConfig requests plain text and disables extended reasoning.
func buildConfig() *genai.GenerateContentConfig {
	budget := int32(0)
	return &genai.GenerateContentConfig{
		ResponseMIMEType: responseMIMEType,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: &budget,
		},
	}
}
