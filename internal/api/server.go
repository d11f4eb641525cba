// ABOUTME: HTTP API server exposing items, search, export, and declutter tasks
// ABOUTME: Echo with recover, request ids, structured request logs, and Prometheus metrics
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/harper/stash/internal/core"
	"github.com/harper/stash/internal/llm"
	"github.com/harper/stash/internal/storage"
)

// Server is the HTTP front end over the services
type Server struct {
	echo      *echo.Echo
	items     *core.ItemService
	search    *core.SearchService
	declutter *core.DeclutterService
	logger    *log.Logger
}

// Services groups what the handlers call
type Services struct {
	Items     *core.ItemService
	Search    *core.SearchService
	Declutter *core.DeclutterService
}

// New builds the router. Metrics are registered with reg and served from it.
func New(svc Services, reg *prometheus.Registry, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, items: svc.Items, search: svc.Search, declutter: svc.Declutter, logger: logger}
	e.HTTPErrorHandler = s.handleError

	reqMetrics, err := newHTTPMetrics(reg)
	if err != nil {
		return nil, err
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Debug("request", "method", v.Method, "uri", v.URI, "status", v.Status,
				"latency", v.Latency, "request_id", v.RequestID)
			return nil
		},
	}))
	e.Use(reqMetrics.middleware)

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	api := e.Group("/api")
	s.registerItems(api)
	s.registerTasks(api.Group("/tasks"))

	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on addr until Shutdown
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// statusFor maps service errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrAmbiguousPrefix),
		errors.Is(err, storage.ErrInvalidPrefix),
		errors.Is(err, storage.ErrInvalidInput),
		errors.Is(err, core.ErrUnsupportedFormat),
		errors.Is(err, core.ErrInvalidStatus),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrInvalidDecision),
		errors.Is(err, core.ErrEmptyQuery),
		errors.Is(err, core.ErrNoTags):
		return http.StatusBadRequest
	case errors.Is(err, llm.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) handleError(err error, c echo.Context) {
	code := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", code, "method", req.Method, "path", req.URL.Path, "err", err)
	}
	if c.Response().Committed {
		return
	}
	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]interface{}{"error": msg})
}
