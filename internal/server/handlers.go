package server

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"webpage-chatter/internal/credential"
	"webpage-chatter/internal/pagetext"
	"webpage-chatter/internal/prompt"
	"webpage-chatter/internal/translator"
)

type statusResponse struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status"`
}

type chatResponse struct {
	Text string `json:"text"`
}

type suggestionsResponse struct {
	Questions []string `json:"questions"`
}

// pageContent returns the page text used for routing and prompting.
func (s *Server) pageContent(raw string) string {
	if s.cfg.Content.StripHTML {
		return pagetext.Normalize(raw)
	}
	return raw
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Message: "Welcome to WebPage Chatter API", Status: "active"})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, statusResponse{Status: "healthy"})
}

func (s *Server) handleChat(c echo.Context) error {
	var req translator.ChatPayload
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if !credential.Valid(req.APIKey) {
		return errInvalidAPIKey
	}

	content := s.pageContent(req.WebpageContent)
	choice := s.router.Route(content, req.Query)
	text := s.gateway.Complete(c.Request().Context(), req.APIKey, choice.ID, prompt.Chat(content, req.Query))

	return c.JSON(http.StatusOK, chatResponse{Text: text})
}

func (s *Server) handleChatStream(c echo.Context) error {
	var req translator.ChatPayload
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if !credential.Valid(req.APIKey) {
		return errInvalidAPIKey
	}

	res := c.Response()
	flusher, ok := res.Writer.(http.Flusher)
	if !ok {
		s.logger.Error("http writer does not support flushing")
		return requestError{
			Status:  http.StatusInternalServerError,
			Message: "server does not support streaming responses",
		}
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	content := s.pageContent(req.WebpageContent)
	choice := s.router.Route(content, req.Query)
	fragments := s.gateway.Stream(ctx, req.APIKey, choice.ID, prompt.Chat(content, req.Query))

	header := res.Header()
	header.Set(echo.HeaderContentType, echo.MIMETextPlainCharsetUTF8)
	header.Set("Cache-Control", "no-cache")
	header.Set("X-Accel-Buffering", "no")
	res.WriteHeader(http.StatusOK)
	flusher.Flush()

	for fragment := range fragments {
		if _, err := io.WriteString(res, fragment); err != nil {
			s.logger.Debug("stream client went away",
				zap.String("request_id", header.Get(echo.HeaderXRequestID)),
				zap.Error(err),
			)
			return nil
		}
		flusher.Flush()
	}
	return nil
}

func (s *Server) handleSuggestQuestions(c echo.Context) error {
	var req translator.SuggestionsPayload
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}
	if !credential.Valid(req.APIKey) {
		return errInvalidAPIKey
	}

	content := s.pageContent(req.WebpageContent)
	p := prompt.Suggestions(content, req.Count, req.ConversationHistory, req.UseConversationContext)
	choice := s.router.Route(p)
	questions := s.gateway.Suggest(c.Request().Context(), req.APIKey, choice.ID, p, req.Count)

	return c.JSON(http.StatusOK, suggestionsResponse{Questions: questions})
}
