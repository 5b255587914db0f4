// internal/server/server.go
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"vdiff/internal/api"
	"vdiff/internal/config"
	"vdiff/internal/diff"
	"vdiff/internal/logging"
	"vdiff/internal/middleware"
	"vdiff/internal/session"
	"vdiff/internal/storage"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

// Server is the diff session HTTP service with its database.
type Server struct {
	Handler http.Handler
	Addr    string

	db     *badger.DB
	logger *logging.Logger
}

// New opens the database and wires the session service behind the API
// handlers and middleware.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	db, err := storage.Open(cfg.Database.Path, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store, err := session.NewStore(db, cfg.Sessions.CompressThreshold)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session store: %w", err)
	}

	engine := diff.NewEngine(cfg.Diff.ContextLines,
		diff.WithExpandStep(cfg.Diff.ExpandStep),
		diff.WithMaxLines(cfg.Diff.MaxLines),
		diff.WithLogger(logger.Named("diff")),
	)

	sessions, err := session.NewService(store, engine, session.ServiceOptions{
		CacheSize:       cfg.Sessions.CacheSize,
		AlwaysNormalize: cfg.Diff.Normalize,
		Logger:          logger.Named("session"),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating session service: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", api.Health)
	api.NewDiffHandler(sessions).Register(mux)

	// RequestID runs outermost so the logger and recovery see the ID.
	handler := middleware.Chain(
		mux,
		middleware.Recover(logger),
		middleware.Logger(logger),
		middleware.RequestID,
	)

	return &Server{
		Handler: handler,
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		db:      db,
		logger:  logger,
	}, nil
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", zap.String("address", s.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}
