// Package prompt composes the text sent to the model.
package prompt

import (
	"fmt"
	"strings"

	"webpage-chatter/internal/models"
)

// Chat combines the page text and the user's question. Nothing is truncated.
func Chat(content, query string) string {
	return fmt.Sprintf("WEBPAGE CONTENT:\n%s\n\nUSER QUERY: %s", content, query)
}

// Suggestions builds the instruction asking for count follow-up questions as
// a JSON array of strings. Prior turns are folded in only when useContext is
// set and history is non-empty.
func Suggestions(content string, count int, history []models.Message, useContext bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Based on the following webpage content, generate exactly %d diverse and insightful questions that a reader might want to ask about it.\n", count)
	b.WriteString("The questions should cover different aspects of the content, must not overlap or repeat each other, and should be answerable from the page.\n")

	transcript := formatHistory(history)
	if useContext && transcript != "" {
		b.WriteString("Take the conversation so far into account: suggest natural follow-up questions and do not repeat questions that have already been asked or answered.\n")
	}

	fmt.Fprintf(&b, "Return ONLY a JSON array of %d strings, with no explanation, numbering or markdown. Example: [\"Question 1?\", \"Question 2?\"]\n\n", count)
	fmt.Fprintf(&b, "WEBPAGE CONTENT:\n%s", content)

	if useContext && transcript != "" {
		fmt.Fprintf(&b, "\n\nCONVERSATION HISTORY:\n%s", transcript)
	}

	return b.String()
}

func formatHistory(history []models.Message) string {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		text := strings.TrimSpace(msg.Content)
		if text == "" {
			continue
		}
		lines = append(lines, speaker(msg.Role)+": "+text)
	}
	return strings.Join(lines, "\n")
}

func speaker(role string) string {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "assistant", "model", "bot":
		return "Assistant"
	case "system":
		return "System"
	default:
		return "User"
	}
}
