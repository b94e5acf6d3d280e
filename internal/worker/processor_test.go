package worker

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z32nissan/CSGOFloat-Extension/internal/floats"
	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/jobs"
	"github.com/z32nissan/CSGOFloat-Extension/internal/page"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type result struct {
	info  interfaces.ItemInfo
	err   error
	panic bool
}

// fakeResolver records calls and tracks how many overlap
type fakeResolver struct {
	doc     *page.Memory
	results map[string]result
	delay   time.Duration

	mu          sync.Mutex
	calls       []string
	labels      []string
	inFlight    int32
	maxInFlight int32
}

func (f *fakeResolver) Resolve(ctx context.Context, listingID, inspectLink string) (interfaces.ItemInfo, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		peak := atomic.LoadInt32(&f.maxInFlight)
		if n <= peak || atomic.CompareAndSwapInt32(&f.maxInFlight, peak, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, listingID)
	if f.doc != nil {
		item, _ := f.doc.Item(listingID)
		f.labels = append(f.labels, item.ButtonLabel)
	}
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	r := f.results[listingID]
	if r.panic {
		panic("resolver blew up")
	}
	return r.info, r.err
}

func (f *fakeResolver) callList() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func job(listingID string) *interfaces.Job {
	return &interfaces.Job{ID: "job-" + listingID, ListingID: listingID, InspectLink: "link-" + listingID}
}

// runUntilIdle runs the loop synchronously until the queue is first found
// empty and returns the sleeps it requested.
func runUntilIdle(p *Processor) []time.Duration {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sleeps []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		cancel()
		return false
	}
	p.run(ctx)
	return sleeps
}

func TestProcessorFIFOOneAtATime(t *testing.T) {
	doc := page.NewMemory()
	queue := jobs.NewQueue()
	ids := []string{"5", "3", "9", "1", "7"}
	results := map[string]result{}
	for _, id := range ids {
		doc.AddListing(id)
		queue.Push(job(id))
		results[id] = result{info: interfaces.ItemInfo{FloatValue: 0.5}}
	}

	resolver := &fakeResolver{results: results, delay: 2 * time.Millisecond}
	p := NewProcessor(queue, doc, resolver, Options{})

	runUntilIdle(p)

	assert.Equal(t, ids, resolver.callList())
	assert.Equal(t, int32(1), resolver.maxInFlight)
	assert.Equal(t, 0, queue.Len())
}

func TestProcessorSuccessShowsFloat(t *testing.T) {
	doc := page.NewMemory()
	doc.AddListing("L")
	queue := jobs.NewQueue()
	queue.Push(job("L"))

	resolver := &fakeResolver{
		doc:     doc,
		results: map[string]result{"L": {info: interfaces.ItemInfo{FloatValue: 0.42, PaintSeed: 17}}},
	}

	var outcomes []Outcome
	p := NewProcessor(queue, doc, resolver, Options{OnSettled: func(o Outcome) { outcomes = append(outcomes, o) }})
	runUntilIdle(p)

	item, ok := doc.Item("L")
	require.True(t, ok)
	assert.Equal(t, "Float: 0.42", item.Float)
	assert.Equal(t, "Paint Seed: 17", item.Seed)
	assert.False(t, item.HasButton, "button is removed")
	assert.False(t, item.HasMessage)

	assert.Equal(t, []string{page.LabelFetching}, resolver.labels, "label shows work in progress during fetch")

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusCompleted, outcomes[0].Status)
	require.NotNil(t, outcomes[0].ItemInfo)
	assert.Equal(t, 0.42, outcomes[0].ItemInfo.FloatValue)
}

func TestProcessorFailureRestoresButton(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{
			name:    "backend message",
			err:     &floats.FetchError{Message: "Valve's servers didn't reply in time"},
			wantMsg: "Valve's servers didn't reply in time",
		},
		{
			name:    "empty error payload",
			err:     &floats.FetchError{},
			wantMsg: page.UnknownError,
		},
		{
			name:    "transport error",
			err:     errors.New("connection reset"),
			wantMsg: page.UnknownError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := page.NewMemory()
			doc.AddListing("L")
			queue := jobs.NewQueue()
			queue.Push(job("L"))

			resolver := &fakeResolver{results: map[string]result{"L": {err: tt.err}}}
			var outcomes []Outcome
			p := NewProcessor(queue, doc, resolver, Options{OnSettled: func(o Outcome) { outcomes = append(outcomes, o) }})
			runUntilIdle(p)

			item, _ := doc.Item("L")
			assert.True(t, item.HasButton)
			assert.Equal(t, page.LabelGetFloat, item.ButtonLabel)
			assert.Equal(t, tt.wantMsg, item.Message)
			assert.Empty(t, item.Float)

			require.Len(t, outcomes, 1)
			assert.Equal(t, StatusFailed, outcomes[0].Status)
			assert.Equal(t, tt.wantMsg, outcomes[0].Error)
		})
	}
}

type stubInspector struct {
	calls int32
	resp  *interfaces.InspectResponse
}

func (s *stubInspector) Inspect(ctx context.Context, inspectLink string) (*interfaces.InspectResponse, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.resp, nil
}

func TestProcessorFailureLeavesCacheUntouched(t *testing.T) {
	doc := page.NewMemory()
	doc.AddListing("L")
	queue := jobs.NewQueue()
	queue.Push(job("L"))

	cache := floats.NewCache(&stubInspector{resp: &interfaces.InspectResponse{Error: "bad link"}})
	p := NewProcessor(queue, doc, cache, Options{})
	runUntilIdle(p)

	_, cached := cache.Get("L")
	assert.False(t, cached)

	item, _ := doc.Item("L")
	assert.Equal(t, "bad link", item.Message)
}

func TestProcessorCacheShortCircuits(t *testing.T) {
	doc := page.NewMemory()
	doc.AddListing("L")
	queue := jobs.NewQueue()
	queue.Push(job("L"))
	queue.Push(job("L"))

	inspector := &stubInspector{resp: &interfaces.InspectResponse{ItemInfo: &interfaces.ItemInfo{FloatValue: 0.2, PaintSeed: 3}}}
	cache := floats.NewCache(inspector)
	p := NewProcessor(queue, doc, cache, Options{})
	runUntilIdle(p)

	assert.Equal(t, int32(1), atomic.LoadInt32(&inspector.calls))
}

func TestProcessorSkipsStaleJobsWithoutDelay(t *testing.T) {
	doc := page.NewMemory()
	doc.AddListing("gone")
	doc.AddListing("here")
	doc.RemoveRow("gone")

	queue := jobs.NewQueue()
	queue.Push(job("gone"))
	queue.Push(job("here"))

	resolver := &fakeResolver{results: map[string]result{"here": {info: interfaces.ItemInfo{FloatValue: 0.9}}}}
	var statuses []Status
	p := NewProcessor(queue, doc, resolver, Options{OnSettled: func(o Outcome) { statuses = append(statuses, o.Status) }})

	sleeps := runUntilIdle(p)

	assert.Equal(t, []string{"here"}, resolver.callList(), "no backend call for the stale job")
	assert.Len(t, sleeps, 1, "only the final idle wait sleeps")
	assert.Equal(t, []Status{StatusStale, StatusCompleted}, statuses)
}

func TestProcessorPollsEmptyQueue(t *testing.T) {
	p := NewProcessor(jobs.NewQueue(), page.NewMemory(), &fakeResolver{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sleeps []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) bool {
		sleeps = append(sleeps, d)
		if len(sleeps) == 3 {
			cancel()
			return false
		}
		return true
	}
	p.run(ctx)

	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond, 100 * time.Millisecond}, sleeps)
}

func TestProcessorRecoversFromPanic(t *testing.T) {
	doc := page.NewMemory()
	doc.AddListing("bad")
	doc.AddListing("good")
	queue := jobs.NewQueue()
	queue.Push(job("bad"))
	queue.Push(job("good"))

	resolver := &fakeResolver{results: map[string]result{
		"bad":  {panic: true},
		"good": {info: interfaces.ItemInfo{FloatValue: 0.3, PaintSeed: 1}},
	}}
	var statuses []Status
	p := NewProcessor(queue, doc, resolver, Options{OnSettled: func(o Outcome) { statuses = append(statuses, o.Status) }})
	runUntilIdle(p)

	assert.Equal(t, []Status{StatusFailed, StatusCompleted}, statuses)
	item, _ := doc.Item("good")
	assert.Equal(t, "Float: 0.3", item.Float)
}

func TestProcessorStartStop(t *testing.T) {
	doc := page.NewMemory()
	doc.AddListing("L")
	queue := jobs.NewQueue()

	resolver := &fakeResolver{results: map[string]result{"L": {info: interfaces.ItemInfo{FloatValue: 0.11, PaintSeed: 5}}}}
	p := NewProcessor(queue, doc, resolver, Options{PollInterval: 5 * time.Millisecond, FetchTimeout: time.Second})
	p.Start()
	defer p.Stop()

	queue.Push(job("L"))

	assert.Eventually(t, func() bool {
		item, _ := doc.Item("L")
		return item.Float == "Float: 0.11"
	}, time.Second, 5*time.Millisecond)
}

func TestSleepContext(t *testing.T) {
	start := time.Now()
	assert.True(t, sleepContext(context.Background(), 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, sleepContext(ctx, time.Hour))
}
