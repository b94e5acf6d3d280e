package main

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/z32nissan/CSGOFloat-Extension/internal/backend"
	"github.com/z32nissan/CSGOFloat-Extension/internal/config"
	relay "github.com/z32nissan/CSGOFloat-Extension/internal/grpc"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
)

func newBackendCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backend",
		Short: "Serve the inspect API over gRPC for floatcheck run",
		Long: `Starts a gRPC relay in front of the inspect API. Point floatcheck run at it
with BACKEND_ADDR to keep backend access in a separate process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.Init("floatcheck-backend", cfg.LogLevel)

			lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			s := grpc.NewServer()
			relay.Register(s, backend.NewHTTPInspector(cfg.BackendURL, cfg.BackendInterval))

			serveErr := make(chan error, 1)
			go func() {
				logger.Logger.Info().Str("port", cfg.GRPCPort).Msg("Backend relay listening")
				serveErr <- s.Serve(lis)
			}()

			select {
			case <-cmd.Context().Done():
				logger.Logger.Info().Msg("Shutting down gracefully...")
				s.GracefulStop()
				logger.Logger.Info().Msg("Backend relay stopped")
				return nil
			case err := <-serveErr:
				return err
			}
		},
	}
}
