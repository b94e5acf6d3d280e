package page

import (
	"context"
	"time"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
)

// Decorator attaches float containers to undecorated rows and returns the
// listing ids it decorated
type Decorator interface {
	Scan(ctx context.Context) ([]string, error)
}

// FloatLookup reads already-fetched floats
type FloatLookup interface {
	Get(listingID string) (interfaces.ItemInfo, bool)
}

// Scanner periodically decorates new rows and restores floats that were
// fetched before the page re-rendered them.
type Scanner struct {
	decorator Decorator
	doc       interfaces.Document
	floats    FloatLookup
	interval  time.Duration
}

func NewScanner(decorator Decorator, doc interfaces.Document, floats FloatLookup, interval time.Duration) *Scanner {
	return &Scanner{
		decorator: decorator,
		doc:       doc,
		floats:    floats,
		interval:  interval,
	}
}

// Run scans until ctx is cancelled
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.ScanOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// ScanOnce performs a single decoration pass
func (s *Scanner) ScanOnce(ctx context.Context) {
	added, err := s.decorator.Scan(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Logger.Warn().Err(err).Msg("Page scan failed")
		}
		return
	}

	for _, id := range added {
		info, ok := s.floats.Get(id)
		if !ok {
			continue
		}
		if err := s.doc.ShowFloat(ctx, id, info); err != nil {
			log := logger.WithListingID(id)
			log.Warn().Err(err).Msg("Failed to restore float")
		}
	}
}
