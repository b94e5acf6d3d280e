package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/z32nissan/CSGOFloat-Extension/internal/floats"
	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/jobs"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
	"github.com/z32nissan/CSGOFloat-Extension/internal/metrics"
	"github.com/z32nissan/CSGOFloat-Extension/internal/page"
)

// Status is how a dequeued job settled
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStale     Status = "stale"
)

// Outcome describes one settled job
type Outcome struct {
	Job      *interfaces.Job      `json:"job"`
	Status   Status               `json:"status"`
	ItemInfo *interfaces.ItemInfo `json:"iteminfo,omitempty"`
	Error    string               `json:"error,omitempty"`
	Duration time.Duration        `json:"duration"`
}

// Resolver returns item info for a listing
type Resolver interface {
	Resolve(ctx context.Context, listingID, inspectLink string) (interfaces.ItemInfo, error)
}

// Options tunes a Processor. Zero values fall back to defaults.
type Options struct {
	PollInterval time.Duration
	FetchTimeout time.Duration
	OnSettled    func(Outcome)
}

// Processor drains the float queue one job at a time. A new fetch is never
// started before the previous job has settled.
type Processor struct {
	queue        *jobs.Queue
	doc          interfaces.Document
	resolver     Resolver
	pollInterval time.Duration
	fetchTimeout time.Duration
	onSettled    func(Outcome)
	sleep        func(ctx context.Context, d time.Duration) bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewProcessor creates a processor over queue that updates doc
func NewProcessor(queue *jobs.Queue, doc interfaces.Document, resolver Resolver, opts Options) *Processor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		queue:        queue,
		doc:          doc,
		resolver:     resolver,
		pollInterval: opts.PollInterval,
		fetchTimeout: opts.FetchTimeout,
		onSettled:    opts.OnSettled,
		sleep:        sleepContext,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// Start begins processing the queue in the background
func (p *Processor) Start() {
	logger.Logger.Info().Dur("poll_interval", p.pollInterval).Msg("Starting float processor")

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(p.ctx)
	}()
}

// Stop abandons outstanding work and waits for the loop to exit
func (p *Processor) Stop() {
	logger.Logger.Info().Msg("Stopping float processor")
	p.cancel()
	p.wg.Wait()
	logger.Logger.Info().Msg("Float processor stopped")
}

// run is the processing loop. An empty queue is re-checked after the poll
// interval; a settled or stale job moves straight on to the next one.
func (p *Processor) run(ctx context.Context) {
	for ctx.Err() == nil {
		job, ok := p.queue.Pop()
		if !ok {
			if !p.sleep(ctx, p.pollInterval) {
				return
			}
			continue
		}

		outcome := p.safeProcess(ctx, job)
		if p.onSettled != nil && ctx.Err() == nil {
			p.onSettled(outcome)
		}
	}
}

// safeProcess keeps one misbehaving job from ending the loop
func (p *Processor) safeProcess(ctx context.Context, job *interfaces.Job) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.Logger.Error().
				Str("job_id", job.ID).
				Str("listing_id", job.ListingID).
				Interface("panic", r).
				Msg("Processor recovered from panic")
			outcome = Outcome{Job: job, Status: StatusFailed, Error: page.UnknownError}
		}
	}()
	return p.processJob(ctx, job)
}

// processJob dispatches, fetches and settles a single job
func (p *Processor) processJob(ctx context.Context, job *interfaces.Job) Outcome {
	start := time.Now()
	log := logger.WithJobID(job.ID)

	present, err := p.doc.HasFloatDiv(ctx, job.ListingID)
	if err != nil {
		log.Debug().Err(err).Str("listing_id", job.ListingID).Msg("Could not look up float container")
	}
	if err != nil || !present {
		// the page moved on since the job was queued
		metrics.JobsStaleTotal.Inc()
		log.Debug().Str("listing_id", job.ListingID).Msg("Listing no longer on page, skipping")
		return Outcome{Job: job, Status: StatusStale, Duration: time.Since(start)}
	}

	if err := p.doc.SetButtonLabel(ctx, job.ListingID, page.LabelFetching); err != nil {
		log.Warn().Err(err).Msg("Failed to set button label")
	}

	fetchCtx, cancel := ctx, context.CancelFunc(func() {})
	if p.fetchTimeout > 0 {
		fetchCtx, cancel = context.WithTimeout(ctx, p.fetchTimeout)
	}
	info, err := p.resolver.Resolve(fetchCtx, job.ListingID, job.InspectLink)
	cancel()

	if err != nil {
		msg := failureMessage(err)
		outcome := Outcome{Job: job, Status: StatusFailed, Error: msg, Duration: time.Since(start)}
		if ctx.Err() != nil {
			return outcome
		}

		metrics.JobsFailedTotal.Inc()
		log.Warn().Err(err).Str("listing_id", job.ListingID).Msg("Float fetch failed")

		if err := p.doc.SetButtonLabel(ctx, job.ListingID, page.LabelGetFloat); err != nil {
			log.Warn().Err(err).Msg("Failed to reset button label")
		}
		if err := p.doc.SetMessage(ctx, job.ListingID, msg); err != nil {
			log.Warn().Err(err).Msg("Failed to set failure message")
		}
		return outcome
	}

	if err := p.doc.ShowFloat(ctx, job.ListingID, info); err != nil {
		log.Warn().Err(err).Msg("Failed to show float")
	}

	metrics.JobsCompletedTotal.Inc()
	log.Info().
		Str("listing_id", job.ListingID).
		Float64("float", info.FloatValue).
		Int("seed", info.PaintSeed).
		Msg("Float displayed")

	return Outcome{Job: job, Status: StatusCompleted, ItemInfo: &info, Duration: time.Since(start)}
}

func failureMessage(err error) string {
	var fetchErr *floats.FetchError
	if errors.As(err, &fetchErr) && fetchErr.Message != "" {
		return fetchErr.Message
	}
	return page.UnknownError
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
