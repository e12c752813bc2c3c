package gateway

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"webpage-chatter/internal/provider"
)

// DefaultQuestions are returned whenever no usable suggestions can be produced.
var DefaultQuestions = []string{
	"What is the main topic of this page?",
	"Can you summarize the key points?",
	"What are the most important takeaways?",
	"Who is the intended audience for this content?",
	"What conclusions or recommendations does the page make?",
}

var (
	bracketSpan      = regexp.MustCompile(`(?s)\[.*?\]`)
	widestSpan       = regexp.MustCompile(`(?s)\[.*\]`)
	enumerationMark  = regexp.MustCompile(`^(?:[-*•]+|\(?\d+\s*[.):])\s*`)
	punctuationOnly  = regexp.MustCompile(`^[\[\]{}(),.;:\s` + "`" + `]*$`)
	surroundingQuote = "\"'`“”‘’"
)

// Suggest asks the model for follow-up questions and parses them. It always
// returns at least one question: a failed call or an unusable response yields
// DefaultQuestions.
func (g *Gateway) Suggest(ctx context.Context, apiKey, model, prompt string, count int) []string {
	text, err := g.generate(ctx, modeSuggest, provider.Request{APIKey: apiKey, Model: model, Prompt: prompt})
	if err != nil {
		g.fail(modeSuggest, model, err)
		return defaultQuestions()
	}

	questions := ParseQuestions(text, count)
	if len(questions) == 0 {
		g.logger.Warn("no usable questions in model response", zap.String("model", model), zap.Int("response_bytes", len(text)))
		return defaultQuestions()
	}
	return questions
}

// ParseQuestions extracts an ordered list of questions from a model response.
// It tries, in order: the whole text as a JSON array, the first bracketed
// span holding at least one string, and finally one question per line with
// enumeration markers and quotes removed. The result is truncated to count
// when count is positive; it is never padded.
func ParseQuestions(text string, count int) []string {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		if questions, ok := decodeArray(trimmed); ok {
			return truncate(questions, count)
		}
	}

	// Shortest spans first, in order, then the widest one for arrays whose
	// strings contain brackets.
	spans := append(bracketSpan.FindAllString(trimmed, -1), widestSpan.FindString(trimmed))
	for _, span := range spans {
		if questions, ok := decodeArray(span); ok && len(questions) > 0 {
			return truncate(questions, count)
		}
	}

	return truncate(splitLines(trimmed), count)
}

func decodeArray(raw string) ([]string, bool) {
	var items []any
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false
	}

	questions := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			questions = append(questions, s)
		}
	}
	return questions, true
}

func splitLines(text string) []string {
	var questions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") || punctuationOnly.MatchString(line) {
			continue
		}

		line = enumerationMark.ReplaceAllString(line, "")
		line = strings.TrimSpace(strings.TrimRight(line, ","))
		line = strings.TrimSpace(strings.Trim(line, surroundingQuote))
		if line == "" {
			continue
		}
		questions = append(questions, line)
	}
	return questions
}

func truncate(questions []string, count int) []string {
	if count > 0 && len(questions) > count {
		return questions[:count]
	}
	return questions
}

func defaultQuestions() []string {
	out := make([]string, len(DefaultQuestions))
	copy(out, DefaultQuestions)
	return out
}
