// Package bridge exchanges listing catalog snapshots with the market page.
//
// The page's catalog lives in a global of the page's own script world. A
// companion script injected there answers requestListingInfo messages with
// a listingInfo message carrying the whole catalog. Both kinds are
// broadcast, so every listener sees its own requests as well.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
	"github.com/z32nissan/CSGOFloat-Extension/internal/metrics"
)

const (
	TypeRequestListingInfo = "requestListingInfo"
	TypeListingInfo        = "listingInfo"

	listingPlaceholder = "%listingid%"
	assetPlaceholder   = "%assetid%"
)

// Message is the wire form of both bridge message kinds
type Message struct {
	Type        string             `json:"type"`
	ListingInfo interfaces.Catalog `json:"listingInfo,omitempty"`
}

// Transport delivers a message across the page boundary
type Transport interface {
	Post(ctx context.Context, msg Message) error
}

// Channel multiplexes catalog requests onto one outstanding page request.
// Every waiter registered before a reply arrives receives that reply.
type Channel struct {
	transport Transport

	mu       sync.Mutex
	catalog  interfaces.Catalog
	waiters  []chan result
	inFlight bool
}

type result struct {
	catalog interfaces.Catalog
	err     error
}

func NewChannel(transport Transport) *Channel {
	return &Channel{
		transport: transport,
		catalog:   interfaces.Catalog{},
	}
}

// RequestCatalog returns a catalog snapshot. A non-empty hintID that the
// stored snapshot already knows is answered without a round trip. The wait
// for the page is bounded only by ctx.
func (c *Channel) RequestCatalog(ctx context.Context, hintID string) (interfaces.Catalog, error) {
	c.mu.Lock()
	if hintID != "" {
		if _, ok := c.catalog[hintID]; ok {
			snapshot := c.catalog
			c.mu.Unlock()
			return snapshot, nil
		}
	}

	waiter := make(chan result, 1)
	c.waiters = append(c.waiters, waiter)
	post := !c.inFlight
	c.inFlight = true
	c.mu.Unlock()

	if post {
		metrics.CatalogRequestsTotal.Inc()
		logger.Logger.Debug().Str("hint", hintID).Msg("Requesting listing catalog from page")
		if err := c.transport.Post(ctx, Message{Type: TypeRequestListingInfo}); err != nil {
			err = fmt.Errorf("failed to post catalog request: %w", err)
			if c.failRound(waiter, err) {
				return nil, err
			}
		}
	}

	select {
	case res := <-waiter:
		return res.catalog, res.err
	case <-ctx.Done():
		c.abandon(waiter)
		return nil, fmt.Errorf("waiting for listing catalog: %w", ctx.Err())
	}
}

// Handle consumes a message seen on the page. Anything but a listingInfo
// reply is ignored.
func (c *Channel) Handle(msg Message) {
	if msg.Type != TypeListingInfo {
		return
	}

	c.mu.Lock()
	merged := make(interfaces.Catalog, len(c.catalog)+len(msg.ListingInfo))
	for id, rec := range c.catalog {
		merged[id] = rec
	}
	for id, rec := range msg.ListingInfo {
		merged[id] = rec
	}
	c.catalog = merged
	waiters := c.waiters
	c.waiters = nil
	c.inFlight = false
	c.mu.Unlock()

	logger.Logger.Debug().
		Int("listings", len(merged)).
		Int("waiters", len(waiters)).
		Msg("Listing catalog received")

	for _, w := range waiters {
		w <- result{catalog: merged}
	}
}

// HandleRaw decodes a JSON bridge message and handles it. The page sends
// an empty array instead of an object when it has no listings.
func (c *Channel) HandleRaw(data []byte) error {
	var raw struct {
		Type        string          `json:"type"`
		ListingInfo json.RawMessage `json:"listingInfo"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode bridge message: %w", err)
	}

	msg := Message{Type: raw.Type}
	trimmed := bytes.TrimSpace(raw.ListingInfo)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &msg.ListingInfo); err != nil {
			return fmt.Errorf("failed to decode listing catalog: %w", err)
		}
	}

	c.Handle(msg)
	return nil
}

// Snapshot returns the most recently stored catalog
func (c *Channel) Snapshot() interfaces.Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.catalog
}

// failRound fails every waiter of the current round after its request could
// not be posted, so later callers post again. It reports false when a reply
// already resolved the round.
func (c *Channel) failRound(own chan result, err error) bool {
	c.mu.Lock()
	found := false
	for _, w := range c.waiters {
		if w == own {
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		return false
	}
	waiters := c.waiters
	c.waiters = nil
	c.inFlight = false
	c.mu.Unlock()

	for _, w := range waiters {
		if w != own {
			w <- result{err: err}
		}
	}
	return true
}

func (c *Channel) abandon(waiter chan result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, w := range c.waiters {
		if w == waiter {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			break
		}
	}
	// nobody is left to receive a late reply, so the next caller posts again
	if len(c.waiters) == 0 {
		c.inFlight = false
	}
}

// InspectLink builds the inspect link for a listing from its first market
// action. It reports false when the catalog has no usable entry.
func InspectLink(catalog interfaces.Catalog, listingID string) (string, bool) {
	rec, ok := catalog[listingID]
	if !ok || len(rec.Asset.MarketActions) == 0 {
		return "", false
	}

	link := rec.Asset.MarketActions[0].Link
	if link == "" {
		return "", false
	}

	link = strings.Replace(link, listingPlaceholder, listingID, 1)
	link = strings.Replace(link, assetPlaceholder, rec.Asset.ID, 1)
	return link, true
}
