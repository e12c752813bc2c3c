package factory

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"webpage-chatter/internal/config"
	"webpage-chatter/internal/provider"
	geminiProvider "webpage-chatter/internal/provider/gemini"
)

const (
	defaultDialTimeout     = 10 * time.Second
	defaultKeepAlive       = 30 * time.Second
	defaultIdleConnTimeout = 90 * time.Second
)

// NewGenerator constructs the configured upstream generator.
func NewGenerator(cfg config.Config, logger *zap.Logger) (provider.Generator, error) {
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}

	client := newHTTPClient(cfg.Upstream.Timeout)
	gen, err := geminiProvider.New(cfg.Upstream, client, logger.Named("gemini"))
	if err != nil {
		return nil, fmt.Errorf("initialise gemini provider: %w", err)
	}
	return gen, nil
}

// newHTTPClient bounds connection setup and the wait for response headers.
// The body has no deadline: a streamed answer may take as long as the model
// keeps producing text, and the caller's context ends it.
func newHTTPClient(headerTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAlive}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          50,
		IdleConnTimeout:       defaultIdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &http.Client{Transport: transport}
}
