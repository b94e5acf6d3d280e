package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const serviceName = "floatcheck"

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

type ReadinessResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Page      string    `json:"page"`
}

// Pinger reports whether the market page is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

func HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Service:   serviceName,
	})
}

func HandleReadiness(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		pageStatus := "unknown"
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := pinger.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, ReadinessResponse{
					Status:    "not ready",
					Timestamp: time.Now(),
					Service:   serviceName,
					Page:      "unreachable",
				})
				return
			}
			pageStatus = "connected"
		}

		writeJSON(w, http.StatusOK, ReadinessResponse{
			Status:    "ready",
			Timestamp: time.Now(),
			Service:   serviceName,
			Page:      pageStatus,
		})
	}
}

func HandleLiveness(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Service:   serviceName,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
