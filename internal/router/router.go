package router

import (
	"strings"

	"webpage-chatter/internal/models"
)

// Estimator reports an approximate token count for text.
type Estimator interface {
	Estimate(text string) int
}

// Recorder is notified of every routing decision.
type Recorder interface {
	ObserveModelChoice(choice models.ModelChoice)
}

// Selector maps a token count onto one of two configured models.
type Selector struct {
	Primary   string
	Fallback  string
	Threshold int
}

// Select returns the fallback model when tokens exceed the threshold and the
// primary model otherwise. A count equal to the threshold stays on primary.
func (s Selector) Select(tokens int) string {
	if tokens > s.Threshold {
		return s.Fallback
	}
	return s.Primary
}

// Router picks the model that serves a request.
type Router struct {
	selector  Selector
	estimator Estimator
	recorder  Recorder
}

// New constructs a router from a selector and a token estimator. recorder may be nil.
func New(selector Selector, estimator Estimator, recorder Recorder) *Router {
	return &Router{
		selector:  selector,
		estimator: estimator,
		recorder:  recorder,
	}
}

// Route estimates the size of the concatenated texts and chooses a model.
// The choice is made once per request.
func (r *Router) Route(texts ...string) models.ModelChoice {
	tokens := r.estimator.Estimate(strings.Join(texts, ""))
	id := r.selector.Select(tokens)

	choice := models.ModelChoice{
		ID:              id,
		EstimatedTokens: tokens,
		Fallback:        tokens > r.selector.Threshold,
	}
	if r.recorder != nil {
		r.recorder.ObserveModelChoice(choice)
	}
	return choice
}
