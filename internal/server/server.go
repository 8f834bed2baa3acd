package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kataras/iris/v12"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/go-psindex/internal/psindex"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	cfg Config
	app *iris.Application
}

// New loads the index named by cfg.IndexPath and builds the HTTP application.
func New(cfg Config) (*Server, error) {
	cfg = normalizeConfig(cfg)
	idx, err := psindex.LoadIndexFile(cfg.IndexPath)
	if err != nil {
		return nil, err
	}
	return NewWithIndex(cfg, idx)
}

func NewWithIndex(cfg Config, idx *psindex.Index) (*Server, error) {
	cfg = normalizeConfig(cfg)
	searcher, err := psindex.NewSearcher(idx)
	if err != nil {
		return nil, err
	}

	app := iris.New()
	app.Logger().SetLevel("warn")
	RegisterRoutes(app, NewHandlers(searcher, cfg.MaxFrames))
	return &Server{cfg: cfg, app: app}, nil
}

// Handler builds the router so the application can be mounted on any
// http.Server.
func (s *Server) Handler() (http.Handler, error) {
	if err := s.app.Build(); err != nil {
		return nil, err
	}
	return s.app, nil
}

// Run serves until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		psindex.LogInfo("HTTP server listening", "addr", s.cfg.Addr, "index", s.cfg.IndexPath)
		err := s.app.Listen(s.cfg.Addr, iris.WithoutStartupLog, iris.WithoutInterruptHandler)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			psindex.LogError("HTTP server stopped", "addr", s.cfg.Addr, "error", err)
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		psindex.LogInfo("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.app.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
