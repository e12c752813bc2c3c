package models

// Message is one prior turn of a conversation, passed through from the caller.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest asks a question about a webpage.
type ChatRequest struct {
	APIKey         string
	WebpageContent string
	Query          string
}

// SuggestionsRequest asks for follow-up questions about a webpage.
type SuggestionsRequest struct {
	APIKey                 string
	WebpageContent         string
	Count                  int
	ConversationHistory    []Message
	UseConversationContext bool
}

// ModelChoice records which model serves a request and why.
type ModelChoice struct {
	ID              string
	EstimatedTokens int
	Fallback        bool
}
