// Package server exposes document parsing and validation over HTTP.
//
// The routes mirror the upload workflow: a browser page posts a document
// to /parse or /validate_html, programmatic clients use /parse and
// /validate, and guideline files for citations are managed under
// /guidelines. The knowledge base is rebuilt when guidelines change.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapcheck/internal/kb"
	"github.com/leapstack-labs/leapcheck/internal/llm"
	"github.com/leapstack-labs/leapcheck/internal/validate"
	"github.com/leapstack-labs/leapcheck/pkg/core"
)

// DefaultMaxUploadBytes is the request size limit when none is configured.
const DefaultMaxUploadBytes = 128 << 20

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Config holds configuration for the server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// Rules is the rule configuration. Required.
	Rules *core.Rules
	// Root is the project root; guideline paths are reported relative to it.
	Root string
	// Guidelines are explicitly configured guideline files.
	Guidelines []string
	// GuidelinesDir receives uploaded guidelines and is scanned on reload.
	GuidelinesDir string
	// Loader indexes guideline files. Defaults to a hashing-embedder loader.
	Loader *kb.Loader
	// Augmenter supplies model findings. Defaults to llm.Disabled.
	Augmenter llm.Augmenter
	// MaxUploadBytes limits request bodies. Defaults to 128 MB.
	MaxUploadBytes int64
	// Watch rebuilds the knowledge base when GuidelinesDir changes.
	Watch bool
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Server serves the parse and validation endpoints.
type Server struct {
	addr          string
	rules         *core.Rules
	root          string
	guidelines    []string
	guidelinesDir string
	loader        *kb.Loader
	augmenter     llm.Augmenter
	maxUpload     int64
	watch         bool
	logger        *slog.Logger
	metrics       *Metrics
	router        chi.Router

	mu        sync.RWMutex
	kb        *kb.KB
	validator *validate.Validator

	// reloadMu serializes knowledge base rebuilds.
	reloadMu sync.Mutex
}

// New creates a server and builds the initial knowledge base.
func New(ctx context.Context, cfg Config) (*Server, error) {
	if cfg.Rules == nil {
		return nil, validate.ErrNoRules
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	loader := cfg.Loader
	if loader == nil {
		loader = &kb.Loader{Logger: logger}
	}
	augmenter := cfg.Augmenter
	if augmenter == nil {
		augmenter = llm.Disabled{}
	}
	maxUpload := cfg.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}

	s := &Server{
		addr:          cfg.Addr,
		rules:         cfg.Rules,
		root:          cfg.Root,
		guidelines:    cfg.Guidelines,
		guidelinesDir: cfg.GuidelinesDir,
		loader:        loader,
		augmenter:     augmenter,
		maxUpload:     maxUpload,
		watch:         cfg.Watch,
		logger:        logger,
		metrics:       NewMetrics(),
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// routes configures all routes.
func (s *Server) routes() chi.Router {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.RequestLogger(&middleware.DefaultLogFormatter{
			Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug),
			NoColor: true,
		}),
		middleware.Recoverer,
		middleware.Compress(5),
	)

	r.Get("/health", s.handleHealth)
	r.Get("/", s.handleIndex)
	r.Post("/parse", s.handleParse)
	r.Post("/validate", s.handleValidate)
	r.Post("/validate_html", s.handleValidateHTML)
	r.Get("/guidelines", s.handleListGuidelines)
	r.Post("/guidelines", s.handleUploadGuidelines)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	return r
}

// Serve starts the server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting server", "addr", s.addr)

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.router,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch {
		eg.Go(func() error {
			return s.watchGuidelines(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// GuidelinePaths returns the guideline files the knowledge base is built from.
func (s *Server) GuidelinePaths() []string {
	return kb.GuidelinePaths(s.guidelinesDir, s.guidelines)
}

// Reload rebuilds the knowledge base from the guideline files. On failure
// the previous knowledge base stays in service.
func (s *Server) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	k, err := s.loader.Load(ctx, s.GuidelinePaths())
	if err != nil {
		s.metrics.kbReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load guidelines: %w", err)
	}
	v, err := validate.New(validate.Config{
		Rules:     s.rules,
		KB:        k,
		Augmenter: s.augmenter,
		Logger:    s.logger,
	})
	if err != nil {
		s.metrics.kbReloads.WithLabelValues("error").Inc()
		return err
	}

	s.mu.Lock()
	s.kb = k
	s.validator = v
	s.mu.Unlock()

	s.metrics.kbReloads.WithLabelValues("ok").Inc()
	s.metrics.kbChunks.Set(float64(k.Len()))
	return nil
}

func (s *Server) current() (*kb.KB, *validate.Validator) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.kb, s.validator
}

// displayPath reports path relative to the project root when it lies inside it.
func (s *Server) displayPath(path string) string {
	if s.root == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
