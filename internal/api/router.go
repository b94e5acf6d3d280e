package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
	"github.com/z32nissan/CSGOFloat-Extension/internal/websocket"
)

type contextKey string

const correlationKey contextKey = "correlation_id"

// Submitter queues float jobs
type Submitter interface {
	SubmitListing(ctx context.Context, listingID string) (*interfaces.Job, error)
	SubmitAll(ctx context.Context) ([]*interfaces.Job, error)
}

// FloatReader reads cached floats
type FloatReader interface {
	Get(listingID string) (interfaces.ItemInfo, bool)
}

// QueueReader lists queued jobs
type QueueReader interface {
	Pending() []*interfaces.Job
}

// Deps are the collaborators the routes need. Hub and Pinger may be nil.
type Deps struct {
	Submitter     Submitter
	Floats        FloatReader
	Queue         QueueReader
	Hub           *websocket.Hub
	Pinger        Pinger
	SubmitTimeout time.Duration
}

func AddRoutes(mux *http.ServeMux, deps Deps) {
	mux.HandleFunc("/floats", correlationMiddleware(handleFloats(deps)))
	mux.HandleFunc("/floats/", correlationMiddleware(handleFloatByID(deps)))
	mux.HandleFunc("/queue", correlationMiddleware(handleQueue(deps)))
	if deps.Hub != nil {
		mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
			websocket.HandleWebSocket(deps.Hub, w, r)
		})
	}
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", HandleHealth)
	mux.HandleFunc("/health/ready", HandleReadiness(deps.Pinger))
	mux.HandleFunc("/health/live", HandleLiveness)
}

func correlationMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = uuid.New().String()
		}
		w.Header().Set("X-Correlation-ID", correlationID)
		ctx := context.WithValue(r.Context(), correlationKey, correlationID)
		next(w, r.WithContext(ctx))
	}
}

// handleFloats queues every listing on the page
func handleFloats(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		log := logger.WithCorrelationID(getCorrelationID(r.Context()))
		ctx, cancel := submitContext(r.Context(), deps.SubmitTimeout)
		defer cancel()

		submitted, err := deps.Submitter.SubmitAll(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Failed to queue all listings")
			http.Error(w, "Failed to queue listings: "+err.Error(), submitErrorStatus(err))
			return
		}

		if submitted == nil {
			submitted = []*interfaces.Job{}
		}
		log.Info().Int("queued", len(submitted)).Msg("Queued all listings")
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"jobs":  submitted,
			"count": len(submitted),
		})
	}
}

func handleFloatByID(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listingID := strings.TrimPrefix(r.URL.Path, "/floats/")
		if listingID == "" || strings.Contains(listingID, "/") {
			http.Error(w, "Listing ID is required", http.StatusBadRequest)
			return
		}

		switch r.Method {
		case http.MethodGet:
			handleGetFloat(w, listingID, deps)
		case http.MethodPost:
			handleSubmitListing(w, r, listingID, deps)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func handleGetFloat(w http.ResponseWriter, listingID string, deps Deps) {
	info, ok := deps.Floats.Get(listingID)
	if !ok {
		http.Error(w, "Float not fetched", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"listing_id": listingID,
		"iteminfo":   info,
	})
}

func handleSubmitListing(w http.ResponseWriter, r *http.Request, listingID string, deps Deps) {
	log := logger.WithCorrelationID(getCorrelationID(r.Context()))
	ctx, cancel := submitContext(r.Context(), deps.SubmitTimeout)
	defer cancel()

	job, err := deps.Submitter.SubmitListing(ctx, listingID)
	if err != nil {
		log.Error().Err(err).Str("listing_id", listingID).Msg("Failed to queue listing")
		http.Error(w, "Failed to queue listing: "+err.Error(), submitErrorStatus(err))
		return
	}
	if job == nil {
		log.Warn().Str("listing_id", listingID).Msg("Listing not in page catalog")
		http.Error(w, "Listing not in page catalog", http.StatusNotFound)
		return
	}

	log.Info().Str("job_id", job.ID).Str("listing_id", listingID).Msg("Listing queued")
	writeJSON(w, http.StatusAccepted, job)
}

func handleQueue(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		pending := deps.Queue.Pending()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"jobs":  pending,
			"count": len(pending),
		})
	}
}

func submitContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func submitErrorStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func getCorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationKey).(string); ok {
		return id
	}
	return ""
}
