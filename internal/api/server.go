package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
)

type Server struct {
	deps   Deps
	port   string
	server *http.Server
}

func NewServer(deps Deps, port string) *Server {
	mux := http.NewServeMux()
	AddRoutes(mux, deps)

	return &Server{
		deps: deps,
		port: port,
		server: &http.Server{
			Addr:         fmt.Sprintf(":%s", port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	logger.Logger.Info().Str("addr", s.server.Addr).Msg("Starting API server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
