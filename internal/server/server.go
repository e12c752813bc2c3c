package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"webpage-chatter/internal/config"
	"webpage-chatter/internal/gateway"
	"webpage-chatter/internal/metrics"
	"webpage-chatter/internal/router"
	"webpage-chatter/internal/translator"
)

const (
	maxBodyBytes        = 16 << 20 // 16 MiB
	bodyLimit           = "16M"
	shutdownGracePeriod = 10 * time.Second
	readHeaderTimeout   = 10 * time.Second
	readTimeout         = 60 * time.Second
	idleTimeout         = 120 * time.Second
)

type Server struct {
	cfg     config.Config
	router  *router.Router
	gateway *gateway.Gateway
	metrics *metrics.Metrics
	logger  *zap.Logger
	app     *echo.Echo
	address string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, rt *router.Router, gw *gateway.Gateway, m *metrics.Metrics, logger *zap.Logger) (*Server, error) {
	if rt == nil {
		return nil, errors.New("router must not be nil")
	}
	if gw == nil {
		return nil, errors.New("gateway must not be nil")
	}
	if m == nil {
		return nil, errors.New("metrics must not be nil")
	}
	if logger == nil {
		return nil, errors.New("logger must not be nil")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	srv := &Server{
		cfg:     cfg,
		router:  rt,
		gateway: gw,
		metrics: m,
		logger:  logger,
		address: cfg.Address(),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = srv.handleError

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		HandleError:  true,
		LogLatency:   true,
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogStatus:    true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			path := v.RoutePath
			if path == "" {
				path = "unmatched"
			}
			m.ObserveHTTP(v.Method, path, v.Status, v.Latency)

			fields := []zap.Field{
				zap.String("request_id", v.RequestID),
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Int64("latency_ms", v.Latency.Milliseconds()),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))
	e.Use(middleware.BodyLimit(bodyLimit))

	srv.app = e
	srv.registerRoutes()

	return srv, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg)
	s.logger.Info("starting server",
		zap.String("addr", s.address),
		zap.String("primary_model", s.cfg.Models.Primary),
		zap.String("fallback_model", s.cfg.Models.Fallback),
		zap.Int("token_limit", s.cfg.Models.TokenLimit),
	)

	// No WriteTimeout: streamed answers stay open for as long as the model
	// keeps producing text.
	httpServer := &http.Server{
		Addr:              s.address,
		Handler:           s.app,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/", s.handleRoot)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{
		Registry: s.metrics.Registry(),
	})))

	api := s.app.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/chat", s.handleChat)
	api.POST("/chat/stream", s.handleChatStream)
	api.POST("/suggest-questions", s.handleSuggestQuestions)
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		var maxErr *http.MaxBytesError
		var httpErr *echo.HTTPError
		switch {
		case errors.Is(err, io.EOF):
			return requestError{Status: http.StatusUnprocessableEntity, Message: "request body is required"}
		case translator.IsValidation(err):
			return requestError{Status: http.StatusUnprocessableEntity, Message: err.Error()}
		case errors.As(err, &maxErr):
			return requestError{Status: http.StatusRequestEntityTooLarge, Message: "request body is too large"}
		case errors.As(err, &httpErr):
			return httpErr
		}
		return requestError{Status: http.StatusBadRequest, Message: fmt.Sprintf("invalid JSON payload: %v", err)}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{Status: http.StatusBadRequest, Message: "request body must contain a single JSON object"}
	}
	return nil
}

type requestError struct {
	Status  int
	Message string
}

func (e requestError) Error() string {
	return e.Message
}

var errInvalidAPIKey = requestError{Status: http.StatusUnauthorized, Message: "Invalid API key"}

type errorBody struct {
	Detail string `json:"detail"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	detail := "Internal server error"

	var reqErr requestError
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &reqErr):
		status, detail = reqErr.Status, reqErr.Message
	case errors.As(err, &httpErr):
		status = httpErr.Code
		detail = fmt.Sprint(httpErr.Message)
	default:
		s.logger.Error("unhandled error",
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			zap.Error(err),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, errorBody{Detail: detail})
}

func printStartupBanner(cfg config.Config) {
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	fmt.Println()
	fmt.Println("webpage-chatter ready")
	fmt.Printf("Listening on http://%s:%d\n", host, cfg.Server.Port)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /")
	fmt.Println("  GET  /api/health")
	fmt.Println("  POST /api/chat")
	fmt.Println("  POST /api/chat/stream")
	fmt.Println("  POST /api/suggest-questions")
	fmt.Println("  GET  /metrics")
	fmt.Printf("Models: %s (fallback %s above %d tokens)\n", cfg.Models.Primary, cfg.Models.Fallback, cfg.Models.TokenLimit)
	fmt.Printf("Example:\n  curl http://%s:%d/api/chat -H 'Content-Type: application/json' -d '{\"api_key\":\"<gemini key>\",\"webpage_content\":\"...\",\"query\":\"What is this page about?\"}'\n\n", host, cfg.Server.Port)
}
