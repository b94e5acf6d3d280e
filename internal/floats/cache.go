package floats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
	"github.com/z32nissan/CSGOFloat-Extension/internal/metrics"
)

// FetchError is returned when the backend answered without item info
type FetchError struct {
	Message string
	Code    int
}

func (e *FetchError) Error() string {
	if e.Message == "" {
		return "inspection failed"
	}
	return e.Message
}

// Cache memoizes item info per listing for the lifetime of the process
// and fetches misses from the inspection backend.
type Cache struct {
	inspector interfaces.Inspector

	mu      sync.RWMutex
	records map[string]interfaces.ItemInfo
}

func NewCache(inspector interfaces.Inspector) *Cache {
	return &Cache{
		inspector: inspector,
		records:   make(map[string]interfaces.ItemInfo),
	}
}

// Resolve returns the listing's item info, calling the backend only on a
// cache miss. Failures are never cached and never retried.
func (c *Cache) Resolve(ctx context.Context, listingID, inspectLink string) (interfaces.ItemInfo, error) {
	if info, ok := c.Get(listingID); ok {
		metrics.CacheHitsTotal.Inc()
		return info, nil
	}

	start := time.Now()
	resp, err := c.inspector.Inspect(ctx, inspectLink)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return interfaces.ItemInfo{}, fmt.Errorf("failed to inspect listing %s: %w", listingID, err)
	}

	if resp == nil || resp.ItemInfo == nil {
		fetchErr := &FetchError{}
		if resp != nil {
			fetchErr.Message = resp.Error
			fetchErr.Code = resp.Code
		}
		return interfaces.ItemInfo{}, fetchErr
	}

	info := *resp.ItemInfo
	c.mu.Lock()
	c.records[listingID] = info
	c.mu.Unlock()

	log := logger.WithListingID(listingID)
	log.Debug().Float64("float", info.FloatValue).Int("seed", info.PaintSeed).Msg("Float cached")
	return info, nil
}

// Get returns the cached item info for a listing
func (c *Cache) Get(listingID string) (interfaces.ItemInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	info, ok := c.records[listingID]
	return info, ok
}

// Len returns the number of cached listings
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
