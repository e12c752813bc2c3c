// Package tokens estimates how many model tokens a piece of text consumes.
package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"
)

// charsPerToken is the rough ratio used when no tokenizer is available.
const charsPerToken = 4

type encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

type loaderFunc func() (encoder, error)

// Estimator counts tokens with a BPE tokenizer, falling back to a
// character-based approximation when the tokenizer cannot be used.
// It is safe for concurrent use.
type Estimator struct {
	load   loaderFunc
	logger *zap.Logger

	once    sync.Once
	enc     encoder
	loadErr error
}

// NewEstimator returns an estimator for the named tiktoken encoding
// (for example "cl100k_base"). The vocabulary is loaded on first use.
func NewEstimator(encoding string, logger *zap.Logger) *Estimator {
	return newEstimator(func() (encoder, error) {
		enc, err := tiktoken.GetEncoding(encoding)
		if err != nil {
			return nil, fmt.Errorf("load encoding %q: %w", encoding, err)
		}
		return enc, nil
	}, logger)
}

func newEstimator(load loaderFunc, logger *zap.Logger) *Estimator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{load: load, logger: logger}
}

// Estimate returns the approximate number of tokens in text. It never fails:
// any tokenizer problem yields the character-based estimate instead.
func (e *Estimator) Estimate(text string) int {
	if text == "" {
		return 0
	}

	enc := e.encoder()
	if enc == nil {
		return Approximate(text)
	}

	n, ok := encodeSafely(enc, text)
	if !ok {
		return Approximate(text)
	}
	return n
}

// Approximate is the fallback estimate: character count divided by four.
func Approximate(text string) int {
	return len([]rune(text)) / charsPerToken
}

func (e *Estimator) encoder() encoder {
	e.once.Do(func() {
		e.enc, e.loadErr = e.load()
		if e.loadErr != nil {
			e.logger.Warn("tokenizer unavailable, using character estimate", zap.Error(e.loadErr))
		}
	})
	return e.enc
}

func encodeSafely(enc encoder, text string) (n int, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			n, ok = 0, false
		}
	}()
	return len(enc.Encode(text, nil, nil)), true
}
