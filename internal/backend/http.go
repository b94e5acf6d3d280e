// Package backend talks to the float inspection API.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/z32nissan/CSGOFloat-Extension/internal/interfaces"
)

// HTTPInspector calls the CSGOFloat API directly
type HTTPInspector struct {
	BaseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPInspector creates an inspector that spaces requests at least
// interval apart. A zero interval disables the limiter.
func NewHTTPInspector(baseURL string, interval time.Duration) *HTTPInspector {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &HTTPInspector{
		BaseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Inspect implements interfaces.Inspector. Error payloads come back as a
// response without item info; only transport and decode problems are
// returned as errors.
func (h *HTTPInspector) Inspect(ctx context.Context, inspectLink string) (*interfaces.InspectResponse, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	reqURL := fmt.Sprintf("%s/?url=%s", h.BaseURL, url.QueryEscape(inspectLink))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inspect request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call inspect API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read inspect response: %w", err)
	}

	var out interfaces.InspectResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("inspect API returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if out.ItemInfo == nil && out.Error == "" && resp.StatusCode != http.StatusOK {
		out.Error = fmt.Sprintf("inspect API returned status %d", resp.StatusCode)
	}
	return &out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
