package main

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/spf13/cobra"

	"github.com/z32nissan/CSGOFloat-Extension/internal/api"
	"github.com/z32nissan/CSGOFloat-Extension/internal/backend"
	"github.com/z32nissan/CSGOFloat-Extension/internal/bridge"
	"github.com/z32nissan/CSGOFloat-Extension/internal/config"
	"github.com/z32nissan/CSGOFloat-Extension/internal/floats"
	"github.com/z32nissan/CSGOFloat-Extension/internal/grpc"
	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/jobs"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
	"github.com/z32nissan/CSGOFloat-Extension/internal/nats"
	"github.com/z32nissan/CSGOFloat-Extension/internal/page"
	"github.com/z32nissan/CSGOFloat-Extension/internal/websocket"
	"github.com/z32nissan/CSGOFloat-Extension/internal/worker"
)

func newRunCmd(configPath *string) *cobra.Command {
	var marketURL string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a market listing page and process float requests",
		Example: `  # Check floats on the default listing page
  floatcheck run

  # Use a relay backend and a custom listing page
  BACKEND_ADDR=localhost:8081 floatcheck run --url "https://steamcommunity.com/market/listings/730/..."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if marketURL != "" {
				cfg.MarketURL = marketURL
			}

			logger.Init("floatcheck", cfg.LogLevel)
			return runChecker(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&marketURL, "url", "", "Market listing page to open (overrides config)")

	return cmd
}

func runChecker(ctx context.Context, cfg config.Config) error {
	logger.Logger.Info().Str("market_url", cfg.MarketURL).Msg("Starting floatcheck")

	inspector, closeInspector, err := newInspector(cfg)
	if err != nil {
		return err
	}
	defer closeInspector()

	allocCtx, cancelAlloc := page.NewAllocator(ctx, cfg)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	chrome := page.NewChrome(tabCtx)
	channel := bridge.NewChannel(chrome)
	cache := floats.NewCache(inspector)
	queue := jobs.NewQueue()
	manager := jobs.NewManager(queue, channel, chrome)

	if err := chrome.Install(page.Events{
		Bridge: func(data []byte) {
			if err := channel.HandleRaw(data); err != nil {
				logger.Logger.Warn().Err(err).Msg("Dropping malformed bridge message")
			}
		},
		GetFloat: func(listingID string) {
			submitCtx, cancel := context.WithTimeout(ctx, cfg.BridgeTimeout)
			defer cancel()
			if _, err := manager.SubmitListing(submitCtx, listingID); err != nil {
				logger.WithListingID(listingID).Error().Err(err).Msg("Failed to queue listing")
			}
		},
		GetAll: func() {
			submitCtx, cancel := context.WithTimeout(ctx, cfg.BridgeTimeout)
			defer cancel()
			if _, err := manager.SubmitAll(submitCtx); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to queue all listings")
			}
		},
	}); err != nil {
		return err
	}

	if err := chrome.Navigate(ctx, cfg.MarketURL); err != nil {
		return err
	}

	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Close()

	var publisher *nats.Client
	if cfg.UseNATS {
		server, err := nats.NewServer(cfg.NATSURL, manager, cfg.BridgeTimeout)
		if err != nil {
			return err
		}
		if err := server.Subscribe(); err != nil {
			server.Close()
			return err
		}
		defer server.Close()

		publisher, err = nats.NewClient(cfg.NATSURL)
		if err != nil {
			return err
		}
		defer publisher.Close()
		logger.Logger.Info().Str("url", cfg.NATSURL).Msg("NATS consumer started")
	}

	processor := worker.NewProcessor(queue, chrome, cache, worker.Options{
		PollInterval: cfg.PollInterval,
		FetchTimeout: cfg.FetchTimeout,
		OnSettled:    settleHook(hub, publisher),
	})
	processor.Start()
	defer processor.Stop()

	scanner := page.NewScanner(chrome, chrome, cache, cfg.ScanInterval)
	go scanner.Run(ctx)

	server := api.NewServer(api.Deps{
		Submitter:     manager,
		Floats:        cache,
		Queue:         queue,
		Hub:           hub,
		Pinger:        chrome,
		SubmitTimeout: cfg.BridgeTimeout,
	}, cfg.APIPort)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			return err
		}
	}

	logger.Logger.Info().Msg("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error().Err(err).Msg("API server shutdown failed")
	}
	return nil
}

// newInspector picks the gRPC relay when an address is configured and the
// HTTP API otherwise
func newInspector(cfg config.Config) (interfaces.Inspector, func(), error) {
	if cfg.BackendAddr != "" {
		client, err := grpc.NewClient(cfg.BackendAddr)
		if err != nil {
			return nil, nil, err
		}
		logger.Logger.Info().Str("addr", cfg.BackendAddr).Msg("Using backend relay")
		return client, func() { client.Close() }, nil
	}

	logger.Logger.Info().Str("url", cfg.BackendURL).Msg("Using inspect API")
	return backend.NewHTTPInspector(cfg.BackendURL, cfg.BackendInterval), func() {}, nil
}
