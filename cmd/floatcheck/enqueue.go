package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/z32nissan/CSGOFloat-Extension/internal/config"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
	"github.com/z32nissan/CSGOFloat-Extension/internal/nats"
)

func newEnqueueCmd(configPath *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "enqueue [listing-id]",
		Short: "Ask a running floatcheck to fetch floats over NATS",
		Example: `  # Queue one listing
  floatcheck enqueue 3154061136037796397

  # Queue every listing on the page
  floatcheck enqueue --all`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && len(args) == 0 {
				return errors.New("a listing id or --all is required")
			}

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger.Init("floatcheck-enqueue", cfg.LogLevel)

			client, err := nats.NewClient(cfg.NATSURL)
			if err != nil {
				return err
			}
			defer client.Close()

			msg := &nats.EnqueueMessage{All: all}
			if len(args) == 1 {
				msg.ListingID = args[0]
			}
			if err := client.PublishEnqueue(msg); err != nil {
				return err
			}
			if err := client.Flush(); err != nil {
				return err
			}

			logger.Logger.Info().Str("listing_id", msg.ListingID).Bool("all", all).Msg("Enqueue request published")
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Queue every listing on the page")

	return cmd
}
