package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"webpage-chatter/internal/config"
	"webpage-chatter/internal/provider"
)

const testKey = "AIzaSyTestKey_0123456789abcdef"

type capturedRequest struct {
	path string
	body map[string]any
	key  string
}

// mockGemini returns an httptest server that speaks the subset of the Gemini
// REST API the provider uses.
func mockGemini(t *testing.T, captured *capturedRequest) *httptest.Server {
	t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if captured != nil {
			captured.path = r.URL.Path
			captured.body = body
			captured.key = r.Header.Get("x-goog-api-key") + r.URL.Query().Get("key")
		}

		switch {
		case strings.HasSuffix(r.URL.Path, ":generateContent"):
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello from Gemini"}]},"finishReason":"STOP"}]}`)
		case strings.HasSuffix(r.URL.Path, ":streamGenerateContent"):
			w.Header().Set("Content-Type", "text/event-stream")
			writeChunk(w, "Hello", "")
			writeChunk(w, " world", "STOP")
		default:
			http.NotFound(w, r)
		}
	})

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func writeChunk(w http.ResponseWriter, text, finishReason string) {
	candidate := map[string]any{
		"content": map[string]any{"role": "model", "parts": []map[string]string{{"text": text}}},
	}
	if finishReason != "" {
		candidate["finishReason"] = finishReason
	}
	data, _ := json.Marshal(map[string]any{"candidates": []any{candidate}})
	fmt.Fprintf(w, "data: %s\n\n", data)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func collectStream(t *testing.T, p *Provider) ([]string, error) {
	t.Helper()
	var fragments []string
	for text, err := range p.Stream(context.Background(), provider.Request{APIKey: testKey, Model: "m", Prompt: "p"}) {
		if err != nil {
			return fragments, err
		}
		fragments = append(fragments, text)
	}
	return fragments, nil
}

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	p, err := New(config.UpstreamConfig{BaseURL: baseURL, APIVersion: "v1beta"}, &http.Client{Timeout: 10 * time.Second}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return p
}

func TestNew_NilClient(t *testing.T) {
	_, err := New(config.UpstreamConfig{}, nil, nil)
	require.Error(t, err)
}

func TestGenerate_Success(t *testing.T) {
	var captured capturedRequest
	srv := mockGemini(t, &captured)
	p := newTestProvider(t, srv.URL)

	text, err := p.Generate(context.Background(), provider.Request{
		APIKey: testKey,
		Model:  "gemini-test",
		Prompt: "WEBPAGE CONTENT:\nabc\n\nUSER QUERY: hi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello from Gemini", text)

	assert.Contains(t, captured.path, "gemini-test:generateContent")
	assert.Contains(t, captured.key, testKey)

	raw, err := json.Marshal(captured.body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "USER QUERY: hi")
	assert.Contains(t, string(raw), "text/plain")
}

func TestGenerate_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"code":429,"message":"Resource has been exhausted (e.g. check quota).","status":"RESOURCE_EXHAUSTED"}}`)
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(t, srv.URL)
	_, err := p.Generate(context.Background(), provider.Request{APIKey: testKey, Model: "m", Prompt: "p"})
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "quota")
}

func TestGenerate_RejectsInvalidRequest(t *testing.T) {
	p := newTestProvider(t, "http://127.0.0.1:0")

	_, err := p.Generate(context.Background(), provider.Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, provider.ErrMissingCredential)

	_, err = p.Generate(context.Background(), provider.Request{APIKey: testKey, Model: "m"})
	assert.ErrorIs(t, err, provider.ErrEmptyPrompt)
}

func TestStream_YieldsFragmentsInOrder(t *testing.T) {
	srv := mockGemini(t, nil)
	p := newTestProvider(t, srv.URL)

	var fragments []string
	for text, err := range p.Stream(context.Background(), provider.Request{APIKey: testKey, Model: "m", Prompt: "p"}) {
		require.NoError(t, err)
		fragments = append(fragments, text)
	}
	assert.Equal(t, []string{"Hello", " world"}, fragments)
}

func TestStream_InvalidRequestYieldsError(t *testing.T) {
	p := newTestProvider(t, "http://127.0.0.1:0")

	var errs []error
	for _, err := range p.Stream(context.Background(), provider.Request{Model: "m", Prompt: "p"}) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], provider.ErrMissingCredential)
}

func TestStream_DroppedConnectionIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "chunk0 ", "")
		writeChunk(w, "chunk1 ", "")

		conn, _, err := http.NewResponseController(w).Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	}))
	t.Cleanup(srv.Close)

	fragments, err := collectStream(t, newTestProvider(t, srv.URL))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStreamTruncated)
	assert.Equal(t, []string{"chunk0 ", "chunk1 "}, fragments)
}

func TestStream_MissingFinishReasonIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "only part", "")
	}))
	t.Cleanup(srv.Close)

	fragments, err := collectStream(t, newTestProvider(t, srv.URL))
	assert.ErrorIs(t, err, ErrStreamTruncated)
	assert.Equal(t, []string{"only part"}, fragments)
}

func TestStream_FinishReasonOnEmptyFinalChunk(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		writeChunk(w, "text", "")
		writeChunk(w, "", "STOP")
	}))
	t.Cleanup(srv.Close)

	fragments, err := collectStream(t, newTestProvider(t, srv.URL))
	require.NoError(t, err)
	assert.Equal(t, []string{"text", ""}, fragments)
}
