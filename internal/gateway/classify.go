package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the user-facing class of an upstream failure.
type Category string

const (
	CategoryQuota       Category = "quota_exceeded"
	CategoryUnavailable Category = "service_unavailable"
	CategoryTimeout     Category = "timed_out"
	CategoryCredential  Category = "credential_issue"
	CategoryNetwork     Category = "network_issue"
	CategoryGeneric     Category = "generic"
)

// Rule maps failures whose message satisfies Match onto a category.
type Rule struct {
	Category Category
	Match    func(message string) bool
	Message  string
}

// Classification is the outcome of classifying one failure.
type Classification struct {
	Category Category
	Message  string
}

// Classifier evaluates its rules in order against the lower-cased error
// message; the first match wins.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a classifier over the given ordered rules.
func NewClassifier(rules []Rule) Classifier {
	return Classifier{rules: rules}
}

// DefaultClassifier returns the classifier used for Gemini failures.
func DefaultClassifier() Classifier {
	return NewClassifier(DefaultRules())
}

// DefaultRules is the keyword policy, in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: CategoryQuota,
			Match:    containsAny("quota", "rate", "limit"),
			Message:  "API quota exceeded or rate limit reached. Please wait a moment and try again.",
		},
		{
			Category: CategoryUnavailable,
			Match:    containsAny("unavailable", "service"),
			Message:  "The Gemini service is temporarily unavailable. Please try again later.",
		},
		{
			Category: CategoryTimeout,
			Match:    containsAny("timeout", "deadline"),
			Message:  "The request to Gemini timed out. Please try again, possibly with a shorter page or question.",
		},
		{
			Category: CategoryCredential,
			Match:    containsAny("key", "auth", "credential"),
			Message:  "There is a problem with your API key. Please check that it is valid and has access to the Gemini API.",
		},
		{
			Category: CategoryNetwork,
			Match:    containsAny("network", "connection"),
			Message:  "A network error occurred while contacting Gemini. Please check your connection and try again.",
		},
	}
}

// Classify maps err onto a category and a user-facing message. The innermost
// wrapped error is tried first, so wrapping text such as an endpoint name
// cannot shadow the actual cause; the full message is tried next.
func (c Classifier) Classify(err error) Classification {
	if err == nil {
		return Classification{Category: CategoryGeneric, Message: "An unknown error occurred."}
	}

	for _, message := range []string{innermost(err).Error(), err.Error()} {
		if rule, ok := c.match(strings.ToLower(message)); ok {
			return Classification{Category: rule.Category, Message: rule.Message}
		}
	}

	return Classification{
		Category: CategoryGeneric,
		Message:  fmt.Sprintf("An unexpected error occurred (%s): %s", errorKind(err), err.Error()),
	}
}

func (c Classifier) match(message string) (Rule, bool) {
	for _, rule := range c.rules {
		if rule.Match != nil && rule.Match(message) {
			return rule, true
		}
	}
	return Rule{}, false
}

func containsAny(keywords ...string) func(string) bool {
	return func(message string) bool {
		for _, keyword := range keywords {
			if strings.Contains(message, keyword) {
				return true
			}
		}
		return false
	}
}

// errorKind names the type of the innermost wrapped error.
func errorKind(err error) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", innermost(err)), "*")
}

func innermost(err error) error {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
