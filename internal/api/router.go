// Package api exposes search and patch over HTTP.
//
// Routes, relative to the configured path prefix:
//
//	POST  /search/:entity             search, 200 with a JSON array ([] on no match)
//	PATCH /patch/:table/:pk/:value    update one row, 204
//	GET   /meta                       registered types and their fields
//	GET   /metrics                    Prometheus metrics
//	GET   /healthz                    liveness
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roach88/genq/internal/logging"
	"github.com/roach88/genq/internal/search"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-ID"

// Options configures the router.
type Options struct {
	PathPrefix string
	Logger     *slog.Logger
	// Metrics defaults to a fresh NewMetrics().
	Metrics *Metrics
}

// Server holds the handler dependencies.
type Server struct {
	svc       *search.Service
	log       *slog.Logger
	metrics   *Metrics
	validator *bodyValidator
}

// NewRouter builds the gin engine serving svc.
func NewRouter(svc *search.Service, opts Options) (*gin.Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.PathPrefix == "" {
		opts.PathPrefix = "/"
	}

	validator, err := newBodyValidator(searchRequestSchema)
	if err != nil {
		return nil, err
	}
	s := &Server{svc: svc, log: opts.Logger, metrics: opts.Metrics, validator: validator}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), logging.AccessLog(opts.Logger), opts.Metrics.Middleware())

	g := r.Group(opts.PathPrefix)
	g.POST("/search/:entity", s.handleSearch)
	g.PATCH("/patch/:table/:pk/:value", s.handlePatch)
	g.GET("/meta", s.handleMeta)
	g.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	g.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return r, nil
}

// requestID propagates X-Request-ID, generating one when absent.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(logging.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// Serve runs handler on addr until ctx is cancelled, then shuts down,
// allowing in-flight requests up to five seconds to finish.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
