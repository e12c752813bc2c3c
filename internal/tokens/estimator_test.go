package tokens

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

type wordEncoder struct{}

func (wordEncoder) Encode(text string, _ []string, _ []string) []int {
	return make([]int, len(strings.Fields(text)))
}

type panicEncoder struct{}

func (panicEncoder) Encode(string, []string, []string) []int {
	panic("text contains disallowed special token")
}

func unavailable() (encoder, error) {
	return nil, errors.New("vocabulary download failed")
}

func TestEstimate_EmptyIsZero(t *testing.T) {
	e := newEstimator(func() (encoder, error) { return wordEncoder{}, nil }, zaptest.NewLogger(t))
	assert.Equal(t, 0, e.Estimate(""))

	fallback := newEstimator(unavailable, zaptest.NewLogger(t))
	assert.Equal(t, 0, fallback.Estimate(""))
}

func TestEstimate_UsesEncoder(t *testing.T) {
	e := newEstimator(func() (encoder, error) { return wordEncoder{}, nil }, zaptest.NewLogger(t))
	assert.Equal(t, 3, e.Estimate("one two three"))
}

func TestEstimate_FallsBackWhenTokenizerUnavailable(t *testing.T) {
	calls := 0
	e := newEstimator(func() (encoder, error) {
		calls++
		return unavailable()
	}, zaptest.NewLogger(t))

	assert.Equal(t, 10, e.Estimate(strings.Repeat("abcd", 10)))
	assert.Equal(t, 0, e.Estimate("abc"))
	assert.Equal(t, 1, calls, "loader must only run once")
}

func TestEstimate_FallsBackWhenEncoderPanics(t *testing.T) {
	e := newEstimator(func() (encoder, error) { return panicEncoder{}, nil }, zaptest.NewLogger(t))
	assert.Equal(t, 5, e.Estimate("<|endoftext|>1234567"))
}

func TestEstimate_MonotonicForRepeatedText(t *testing.T) {
	estimators := map[string]*Estimator{
		"encoder":  newEstimator(func() (encoder, error) { return wordEncoder{}, nil }, zaptest.NewLogger(t)),
		"fallback": newEstimator(unavailable, zaptest.NewLogger(t)),
	}

	for name, e := range estimators {
		t.Run(name, func(t *testing.T) {
			prev := 0
			for i := 1; i <= 50; i++ {
				got := e.Estimate(strings.Repeat("This is a test. ", i))
				assert.GreaterOrEqual(t, got, prev)
				prev = got
			}
		})
	}
}

func TestApproximate(t *testing.T) {
	assert.Equal(t, 0, Approximate(""))
	assert.Equal(t, 1, Approximate("abcd"))
	assert.Equal(t, 2, Approximate("héllo wö"))
}
