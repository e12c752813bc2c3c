package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"webpage-chatter/internal/models"
)

func TestSelector_Select(t *testing.T) {
	s := Selector{Primary: "primary", Fallback: "fallback", Threshold: 200000}

	for _, tokens := range []int{0, 1, 199999, 200000} {
		assert.Equal(t, "primary", s.Select(tokens), "tokens=%d", tokens)
	}
	for _, tokens := range []int{200001, 250000, 1 << 30} {
		assert.Equal(t, "fallback", s.Select(tokens), "tokens=%d", tokens)
	}
}

type lengthEstimator struct{}

func (lengthEstimator) Estimate(text string) int { return len(text) }

type recordingRecorder struct {
	choices []models.ModelChoice
}

func (r *recordingRecorder) ObserveModelChoice(c models.ModelChoice) {
	r.choices = append(r.choices, c)
}

func TestRouter_Route(t *testing.T) {
	rec := &recordingRecorder{}
	r := New(Selector{Primary: "big", Fallback: "small", Threshold: 10}, lengthEstimator{}, rec)

	got := r.Route("hello", "world")
	assert.Equal(t, models.ModelChoice{ID: "big", EstimatedTokens: 10, Fallback: false}, got)

	got = r.Route("hello", "world!")
	assert.Equal(t, models.ModelChoice{ID: "small", EstimatedTokens: 11, Fallback: true}, got)

	assert.Len(t, rec.choices, 2)
}

func TestRouter_NilRecorder(t *testing.T) {
	r := New(Selector{Primary: "a", Fallback: "b", Threshold: 1}, lengthEstimator{}, nil)
	assert.Equal(t, "b", r.Route("xy").ID)
}
