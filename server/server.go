// Package server exposes a running layout simulation over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/TFMV/notegraph/ingest"
	"github.com/TFMV/notegraph/models"
	"github.com/TFMV/notegraph/physics"
)

// Options configures a Server. Zero values pick defaults.
type Options struct {
	Addr    string
	FPS     int
	Version string
	Source  models.GraphSource // Backs POST /api/reload; optional
	Palette *ingest.Palette
	Logger  *log.Logger
}

// Server is the notegraph HTTP API server. It owns the frame scheduler that
// advances the simulation while it is not settled.
type Server struct {
	sim     *physics.Simulation
	loop    *physics.Loop
	opts    Options
	router  chi.Router
	started time.Time
}

// New creates a Server around sim.
func New(sim *physics.Simulation, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Palette == nil {
		opts.Palette = ingest.DefaultPalette()
	}
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	s := &Server{
		sim:     sim,
		loop:    physics.NewLoop(sim, opts.Logger),
		opts:    opts,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/stats", s.handleStats)
		r.Get("/frame", s.handleFrame)
		r.Get("/render", s.handleRender)

		r.Put("/graph", s.handlePutGraph)
		r.Post("/reload", s.handleReload)

		r.Get("/notes/{id}", s.handleGetNote)
		r.Delete("/notes/{id}", s.handleRemoveNote)

		r.Post("/drag", s.handleDragStart)
		r.Patch("/drag/{source}", s.handleDragMove)
		r.Delete("/drag/{source}", s.handleDragEnd)
	})

	s.router = r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.opts.Logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "took", time.Since(start))
	})
}

// Run serves HTTP on opts.Addr and ticks the simulation at opts.FPS until ctx
// is cancelled. It returns nil after a clean shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		frames, stop := physics.Ticker(s.opts.FPS)
		defer stop()
		return s.loop.Run(ctx, frames, nil)
	})

	g.Go(func() error {
		s.opts.Logger.Info("listening", "addr", s.opts.Addr, "fps", s.opts.FPS)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
