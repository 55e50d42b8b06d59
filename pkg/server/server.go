// Package server exposes the splitting pipeline over HTTP.
//
// Routes:
//
//	POST   /v1/split                      split an asset-graph document
//	GET    /v1/plans                      list stored plans, newest first
//	GET    /v1/plans/{id}                 fetch a stored plan
//	DELETE /v1/plans/{id}                 delete a stored plan
//	GET    /v1/plans/{id}/render/{format} render a stored plan
//	GET    /healthz                       liveness and build info
//	GET    /metrics                       Prometheus metrics, when enabled
//
// The split endpoint takes the document as the request body. A Content-Type
// containing "yaml" selects the YAML decoder; anything else is read as JSON.
// Query parameters mirror the CLI flags: threshold, no_merge, package_key,
// refresh, detailed, clusters and format (repeatable).
//
// Errors are returned as {"code": ..., "error": ...} with a status derived
// from the error code.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/pipeline"
	"github.com/matzehuels/domsplit/pkg/storage"
)

// DefaultMaxBodyBytes caps the size of a split request body.
const DefaultMaxBodyBytes int64 = 32 << 20

// Options configures a [Server].
type Options struct {
	// Runner executes split requests. Its Store, when set, records every
	// plan; the plan routes read from the same store.
	Runner *pipeline.Runner

	// Defaults supplies split options that requests do not override.
	Defaults pipeline.Options

	// Metrics serves /metrics. Nil leaves the route unregistered.
	Metrics http.Handler

	// MaxBodyBytes caps split request bodies. Zero selects
	// DefaultMaxBodyBytes.
	MaxBodyBytes int64

	Logger *log.Logger
}

// Server is the HTTP front end of a pipeline runner.
type Server struct {
	runner   *pipeline.Runner
	store    storage.Store
	defaults pipeline.Options
	metrics  http.Handler
	maxBody  int64
	logger   *log.Logger
	router   chi.Router
}

// New builds a server. A runner without a store is copied and the copy gets
// an in-memory store, so that split responses can always be fetched again by
// ID. The caller's runner is left untouched.
func New(opts Options) *Server {
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, nil, nil, opts.Logger)
	}
	if opts.Runner.Store == nil {
		r := *opts.Runner
		r.Store = storage.NewMemoryStore()
		opts.Runner = &r
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Server{
		runner:   opts.Runner,
		store:    opts.Runner.Store,
		defaults: opts.Defaults,
		metrics:  opts.Metrics,
		maxBody:  opts.MaxBodyBytes,
		logger:   opts.Logger,
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestID)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/split", s.handleSplit)
		r.Get("/plans", s.handleListPlans)
		r.Route("/plans/{id}", func(r chi.Router) {
			r.Use(planID)
			r.Get("/", s.handleGetPlan)
			r.Delete("/", s.handleDeletePlan)
			r.Get("/render/{format}", s.handleRenderPlan)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and closes the runner.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("shutting down")
	err := srv.Shutdown(shutdownCtx)
	if cerr := s.runner.Close(shutdownCtx); err == nil {
		err = cerr
	}
	return err
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	code := string(errors.GetCode(err))
	if status == http.StatusRequestEntityTooLarge {
		code = string(errors.ErrCodeInvalidInput)
	}
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", RequestID(r.Context()), "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Error: errors.UserMessage(err)})
}

// statusFor maps an error to an HTTP status.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidConfig, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidGraph:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound, errors.ErrCodePlanNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
