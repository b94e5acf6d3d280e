package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/jobs"
	"github.com/z32nissan/CSGOFloat-Extension/internal/page"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

type staticCatalog struct {
	catalog interfaces.Catalog
	err     error
}

func (s staticCatalog) RequestCatalog(ctx context.Context, hintID string) (interfaces.Catalog, error) {
	return s.catalog, s.err
}

type mapFloats map[string]interfaces.ItemInfo

func (m mapFloats) Get(listingID string) (interfaces.ItemInfo, bool) {
	info, ok := m[listingID]
	return info, ok
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error {
	return errors.New("target closed")
}

func newTestMux(t *testing.T, source staticCatalog, floats mapFloats, rows ...string) (*http.ServeMux, *jobs.Queue) {
	t.Helper()
	doc := page.NewMemory()
	for _, id := range rows {
		doc.AddListing(id)
	}
	queue := jobs.NewQueue()
	mux := http.NewServeMux()
	AddRoutes(mux, Deps{
		Submitter:     jobs.NewManager(queue, source, doc),
		Floats:        floats,
		Queue:         queue,
		Pinger:        doc,
		SubmitTimeout: time.Second,
	})
	return mux, queue
}

func catalogOf(ids ...string) interfaces.Catalog {
	catalog := interfaces.Catalog{}
	for _, id := range ids {
		catalog[id] = interfaces.ListingRecord{
			ListingID: id,
			Asset: interfaces.Asset{
				ID:            "a" + id,
				MarketActions: []interfaces.MarketAction{{Link: "steam://inspect/M%listingid%A%assetid%"}},
			},
		}
	}
	return catalog
}

func TestSubmitListing(t *testing.T) {
	mux, queue := newTestMux(t, staticCatalog{catalog: catalogOf("1")}, mapFloats{}, "1")

	req := httptest.NewRequest(http.MethodPost, "/floats/1", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))

	var job interfaces.Job
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "1", job.ListingID)
	assert.Equal(t, "steam://inspect/M1Aa1", job.InspectLink)
	assert.Equal(t, 1, queue.Len())
}

func TestSubmitListingNotInCatalog(t *testing.T) {
	mux, queue := newTestMux(t, staticCatalog{catalog: catalogOf("1")}, mapFloats{}, "1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/floats/9", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, queue.Len())
}

func TestSubmitListingBridgeTimeout(t *testing.T) {
	mux, _ := newTestMux(t, staticCatalog{err: context.DeadlineExceeded}, mapFloats{}, "1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/floats/1", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestSubmitAllKeepsPageOrder(t *testing.T) {
	mux, queue := newTestMux(t, staticCatalog{catalog: catalogOf("3", "1")}, mapFloats{}, "3", "2", "1")

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/floats", nil))

	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Jobs  []interfaces.Job `json:"jobs"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Jobs, 2)
	assert.Equal(t, "3", body.Jobs[0].ListingID)
	assert.Equal(t, "1", body.Jobs[1].ListingID)
	assert.Equal(t, 2, queue.Len())
}

func TestGetFloat(t *testing.T) {
	floats := mapFloats{"1": {FloatValue: 0.42, PaintSeed: 17}}
	mux, _ := newTestMux(t, staticCatalog{}, floats)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/floats/1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ListingID string              `json:"listing_id"`
		ItemInfo  interfaces.ItemInfo `json:"iteminfo"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1", body.ListingID)
	assert.Equal(t, 0.42, body.ItemInfo.FloatValue)
	assert.Equal(t, 17, body.ItemInfo.PaintSeed)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/floats/2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFloatRoutesRejectBadRequests(t *testing.T) {
	mux, _ := newTestMux(t, staticCatalog{}, mapFloats{})

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"get all", http.MethodGet, "/floats", http.StatusMethodNotAllowed},
		{"delete one", http.MethodDelete, "/floats/1", http.StatusMethodNotAllowed},
		{"missing id", http.MethodPost, "/floats/", http.StatusBadRequest},
		{"nested path", http.MethodGet, "/floats/1/extra", http.StatusBadRequest},
		{"post queue", http.MethodPost, "/queue", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestQueueListing(t *testing.T) {
	mux, queue := newTestMux(t, staticCatalog{}, mapFloats{})
	queue.Push(&interfaces.Job{ID: "j1", ListingID: "1"})
	queue.Push(&interfaces.Job{ID: "j2", ListingID: "2"})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Jobs  []interfaces.Job `json:"jobs"`
		Count int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, "j1", body.Jobs[0].ID)
}

func TestCorrelationIDIsEchoed(t *testing.T) {
	mux, _ := newTestMux(t, staticCatalog{}, mapFloats{})

	req := httptest.NewRequest(http.MethodGet, "/queue", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Correlation-ID"))
}

func TestHealthEndpoints(t *testing.T) {
	mux, _ := newTestMux(t, staticCatalog{}, mapFloats{})

	for _, path := range []string{"/health", "/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	}
}

func TestReadinessReportsUnreachablePage(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleReadiness(failingPinger{})(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unreachable", body.Page)
}

func TestMetricsEndpoint(t *testing.T) {
	mux, _ := newTestMux(t, staticCatalog{}, mapFloats{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
