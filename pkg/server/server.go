// Package server exposes the fill workflow over HTTP: upload a template,
// list its placeholders, draft values and download the completed document.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/benjaminschreck/go-docfill/pkg/assist"
	"github.com/benjaminschreck/go-docfill/pkg/docfill"
	"github.com/benjaminschreck/go-docfill/pkg/llm"
	"github.com/benjaminschreck/go-docfill/pkg/store"
)

const (
	defaultUploadLimit = 5 << 20
	defaultJSONLimit   = 2 << 20
	generateBodyLimit  = 1 << 20
	assistBodyLimit    = 12 << 10
)

// Options tunes the HTTP surface.
type Options struct {
	// StaticDir is served at / when not empty.
	StaticDir      string
	CORSOrigins    []string
	MaxUploadBytes int64
	// Retention enables a background sweep deleting uploads older than it.
	Retention time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server wires the template engine, the upload store and the assistant
// behind a chi router.
type Server struct {
	engine     *docfill.Engine
	store      *store.Store
	autofiller *assist.Autofiller
	suggester  *assist.Suggester
	logger     *docfill.Logger
	metrics    *Metrics
	opts       Options
	router     chi.Router
}

// New builds a Server. A nil logger uses the package logger of docfill.
func New(engine *docfill.Engine, st *store.Store, completer llm.Completer, logger *docfill.Logger, opts Options) *Server {
	if logger == nil {
		logger = docfill.GetLogger()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultUploadLimit
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		engine:     engine,
		store:      st,
		autofiller: assist.NewAutofiller(completer, assist.WithLogger(logger)),
		suggester:  assist.NewSuggester(completer, assist.WithLogger(logger)),
		logger:     logger,
		metrics:    NewMetrics(),
		opts:       opts,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Metrics returns the collectors served at /metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/fill/detect", s.handleDetect)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequestSize(defaultJSONLimit))
			r.Post("/fill/generate", s.handleGenerate)
			r.Post("/suggest", s.handleSuggest)
			r.Post("/ai/autofill", s.handleAutofill)
		})
	})

	if s.opts.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.opts.StaticDir)))
	}

	return r
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	shutdownTimeout := s.opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.WithField("addr", ln.Addr().String()).Info("Server listening")
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if s.opts.Retention > 0 {
		g.Go(func() error {
			s.runPruner(gctx)
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// pruneInterval is how often expired uploads are looked for.
func pruneInterval(retention time.Duration) time.Duration {
	return min(max(retention/4, time.Minute), time.Hour)
}

func (s *Server) runPruner(ctx context.Context) {
	ticker := time.NewTicker(pruneInterval(s.opts.Retention))
	defer ticker.Stop()

	s.pruneUploads(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.pruneUploads(ctx, now)
		}
	}
}

// pruneUploads removes uploads older than the retention period at now.
func (s *Server) pruneUploads(ctx context.Context, now time.Time) int {
	removed, err := s.store.Prune(ctx, now.Add(-s.opts.Retention))
	if err != nil && ctx.Err() == nil {
		s.logger.WithField("error", err).Warn("Failed to prune uploads")
	}
	if removed > 0 {
		s.logger.WithField("removed", removed).Info("Pruned expired uploads")
	}
	return removed
}
