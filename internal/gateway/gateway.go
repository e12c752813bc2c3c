// Package gateway wraps the upstream generation call with retries, failure
// classification, streaming and question suggestions. Upstream failures never
// leave this package as errors: they are turned into user-facing text.
package gateway

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"webpage-chatter/internal/provider"
)

const (
	// CompletionSentinel is the last fragment of a stream that finished cleanly.
	CompletionSentinel = "[DONE]"

	// ErrorPrefix starts every user-facing failure message.
	ErrorPrefix = "Error: "

	interruptedPrefix = "\n\nError: The response was interrupted. "

	modeComplete = "complete"
	modeStream   = "stream"
	modeSuggest  = "suggest"

	defaultChunkDelay = 10 * time.Millisecond
)

// Recorder receives gateway telemetry.
type Recorder interface {
	ObserveAttempt(mode string, err error)
	ObserveFailure(mode, category string)
	ObserveFragment()
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(string, error) {}

func (nopRecorder) ObserveFailure(string, string) {}

func (nopRecorder) ObserveFragment() {}

// Options configures a Gateway. Zero values select the defaults, except
// ChunkDelay where zero disables pacing and a negative value selects 10ms.
type Options struct {
	Retry      RetryPolicy
	ChunkDelay time.Duration
	Classifier *Classifier
	Logger     *zap.Logger
	Recorder   Recorder
}

// Gateway issues generation calls on behalf of one request at a time.
// It holds no per-request state and is safe for concurrent use.
type Gateway struct {
	gen        provider.Generator
	retry      RetryPolicy
	chunkDelay time.Duration
	classifier Classifier
	logger     *zap.Logger
	recorder   Recorder
}

// New constructs a gateway over the given generator.
func New(gen provider.Generator, opts Options) (*Gateway, error) {
	if gen == nil {
		return nil, errors.New("generator must not be nil")
	}

	g := &Gateway{
		gen:        gen,
		retry:      opts.Retry,
		chunkDelay: opts.ChunkDelay,
		classifier: DefaultClassifier(),
		logger:     opts.Logger,
		recorder:   opts.Recorder,
	}
	if g.retry.MaxAttempts == 0 {
		g.retry = DefaultRetryPolicy()
	}
	if g.chunkDelay < 0 {
		g.chunkDelay = defaultChunkDelay
	}
	if opts.Classifier != nil {
		g.classifier = *opts.Classifier
	}
	if g.logger == nil {
		g.logger = zap.NewNop()
	}
	if g.recorder == nil {
		g.recorder = nopRecorder{}
	}
	return g, nil
}

// Complete returns the full response text, or "Error: <reason>" when the
// call still fails after the retry policy is exhausted.
func (g *Gateway) Complete(ctx context.Context, apiKey, model, prompt string) string {
	text, err := g.generate(ctx, modeComplete, provider.Request{APIKey: apiKey, Model: model, Prompt: prompt})
	if err != nil {
		return ErrorPrefix + g.fail(modeComplete, model, err).Message
	}
	return text
}

// Stream relays response fragments in arrival order over the returned
// channel, which is always closed. A clean finish ends with
// CompletionSentinel; a failure ends with exactly one error fragment whose
// wording depends on whether any text was already relayed. Retries only
// happen before the first fragment. Cancelling ctx stops the producer.
func (g *Gateway) Stream(ctx context.Context, apiKey, model, prompt string) <-chan string {
	out := make(chan string)
	req := provider.Request{APIKey: apiKey, Model: model, Prompt: prompt}

	go func() {
		defer close(out)

		emitted := 0
		err := g.retry.Do(ctx, func(attempt int) error {
			err := g.relay(ctx, req, out, &emitted)
			g.recorder.ObserveAttempt(modeStream, err)
			if err == nil {
				return nil
			}
			if emitted > 0 {
				return permanent(err)
			}
			g.logger.Warn("upstream stream attempt failed",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		})

		if ctx.Err() != nil {
			g.logger.Debug("stream consumer went away", zap.String("model", model), zap.Int("fragments", emitted))
			return
		}
		if err != nil {
			reason := g.fail(modeStream, model, err).Message
			if emitted > 0 {
				send(ctx, out, interruptedPrefix+reason)
			} else {
				send(ctx, out, ErrorPrefix+reason)
			}
			return
		}
		send(ctx, out, CompletionSentinel)
	}()

	return out
}

func (g *Gateway) relay(ctx context.Context, req provider.Request, out chan<- string, emitted *int) error {
	for text, err := range g.gen.Stream(ctx, req) {
		if err != nil {
			return err
		}
		if text == "" {
			continue
		}
		if *emitted > 0 {
			if err := sleep(ctx, g.chunkDelay); err != nil {
				return err
			}
		}
		if !send(ctx, out, text) {
			return ctx.Err()
		}
		*emitted++
		g.recorder.ObserveFragment()
	}
	return ctx.Err()
}

func (g *Gateway) generate(ctx context.Context, mode string, req provider.Request) (string, error) {
	var text string
	err := g.retry.Do(ctx, func(attempt int) error {
		result, err := g.gen.Generate(ctx, req)
		g.recorder.ObserveAttempt(mode, err)
		if err != nil {
			g.logger.Warn("upstream attempt failed",
				zap.String("mode", mode),
				zap.String("model", req.Model),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		text = result
		return nil
	})
	return text, err
}

func (g *Gateway) fail(mode, model string, err error) Classification {
	c := g.classifier.Classify(err)
	g.recorder.ObserveFailure(mode, string(c.Category))
	g.logger.Error("upstream call failed",
		zap.String("mode", mode),
		zap.String("model", model),
		zap.String("category", string(c.Category)),
		zap.Error(err),
	)
	return c
}

func send(ctx context.Context, out chan<- string, text string) bool {
	select {
	case out <- text:
		return true
	case <-ctx.Done():
		return false
	}
}
