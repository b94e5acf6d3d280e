package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
)

// Submitter queues float jobs
type Submitter interface {
	SubmitListing(ctx context.Context, listingID string) (*interfaces.Job, error)
	SubmitAll(ctx context.Context) ([]*interfaces.Job, error)
}

type Server struct {
	conn      *nats.Conn
	sub       *nats.Subscription
	submitter Submitter
	timeout   time.Duration
}

func NewServer(url string, submitter Submitter, timeout time.Duration) (*Server, error) {
	if url == "" {
		url = nats.DefaultURL
	}

	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &Server{
		conn:      conn,
		submitter: submitter,
		timeout:   timeout,
	}, nil
}

func (s *Server) Subscribe() error {
	sub, err := s.conn.Subscribe(EnqueueSubject, func(msg *nats.Msg) {
		s.handleEnqueue(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to NATS: %w", err)
	}

	s.sub = sub
	return nil
}

func (s *Server) handleEnqueue(data []byte) {
	var msg EnqueueMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Logger.Warn().Err(err).Msg("Invalid enqueue message")
		return
	}

	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	switch {
	case msg.All:
		if _, err := s.submitter.SubmitAll(ctx); err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to queue all listings from NATS")
		}
	case msg.ListingID != "":
		if _, err := s.submitter.SubmitListing(ctx, msg.ListingID); err != nil {
			log := logger.WithListingID(msg.ListingID)
			log.Error().Err(err).Msg("Failed to queue listing from NATS")
		}
	default:
		logger.Logger.Warn().Msg("Enqueue message names no listing")
	}
}

func (s *Server) Close() {
	if s.sub != nil {
		s.sub.Unsubscribe()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
