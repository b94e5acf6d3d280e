package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/z32nissan/CSGOFloat-Extension/internal/bridge"
	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
	"github.com/z32nissan/CSGOFloat-Extension/internal/metrics"
)

// CatalogSource provides listing catalog snapshots from the page
type CatalogSource interface {
	RequestCatalog(ctx context.Context, hintID string) (interfaces.Catalog, error)
}

// ListingLister reports the listing rows currently on the page
type ListingLister interface {
	ListingIDs(ctx context.Context) ([]string, error)
}

// Manager turns listing ids into queued float jobs
type Manager struct {
	queue   *Queue
	catalog CatalogSource
	page    ListingLister
}

func NewManager(queue *Queue, catalog CatalogSource, page ListingLister) *Manager {
	return &Manager{
		queue:   queue,
		catalog: catalog,
		page:    page,
	}
}

// Queue returns the queue jobs are pushed onto
func (m *Manager) Queue() *Queue {
	return m.queue
}

// SubmitListing queues a float job for one listing. It returns nil with no
// error when the page catalog has no entry for the listing.
func (m *Manager) SubmitListing(ctx context.Context, listingID string) (*interfaces.Job, error) {
	if listingID == "" {
		return nil, fmt.Errorf("listing id cannot be empty")
	}

	catalog, err := m.catalog.RequestCatalog(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get listing catalog: %w", err)
	}

	link, ok := bridge.InspectLink(catalog, listingID)
	if !ok {
		log := logger.WithListingID(listingID)
		log.Debug().Msg("Listing not in page catalog, skipping")
		return nil, nil
	}

	return m.push(listingID, link), nil
}

// SubmitAll queues a float job for every listing row on the current page,
// in page order. Rows the catalog cannot resolve are skipped.
func (m *Manager) SubmitAll(ctx context.Context) ([]*interfaces.Job, error) {
	catalog, err := m.catalog.RequestCatalog(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get listing catalog: %w", err)
	}

	ids, err := m.page.ListingIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list page rows: %w", err)
	}

	var submitted []*interfaces.Job
	for _, id := range ids {
		link, ok := bridge.InspectLink(catalog, id)
		if !ok {
			continue
		}
		submitted = append(submitted, m.push(id, link))
	}

	logger.Logger.Info().
		Int("rows", len(ids)).
		Int("queued", len(submitted)).
		Msg("Queued all listings on page")
	return submitted, nil
}

func (m *Manager) push(listingID, link string) *interfaces.Job {
	job := &interfaces.Job{
		ID:          uuid.New().String(),
		ListingID:   listingID,
		InspectLink: link,
		EnqueuedAt:  time.Now(),
	}
	m.queue.Push(job)

	metrics.JobsEnqueuedTotal.Inc()
	log := logger.WithJobID(job.ID)
	log.Debug().Str("listing_id", listingID).Msg("Float job queued")
	return job
}
