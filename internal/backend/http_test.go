package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPInspector(t *testing.T) {
	const link = "steam://rungame/730/76561202255233023/+csgo_econ_action_preview M1A2D3"

	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     bool
		wantFloat   float64
		wantSeed    int
		wantMessage string
		wantCode    int
	}{
		{
			name:      "item info",
			status:    http.StatusOK,
			body:      `{"iteminfo":{"floatvalue":0.42,"paintseed":17,"full_item_name":"AK-47 | Redline"}}`,
			wantFloat: 0.42,
			wantSeed:  17,
		},
		{
			name:        "error payload",
			status:      http.StatusBadRequest,
			body:        `{"error":"Invalid Inspect Link Structure","code":2}`,
			wantMessage: "Invalid Inspect Link Structure",
			wantCode:    2,
		},
		{
			name:        "empty error body",
			status:      http.StatusServiceUnavailable,
			body:        `{}`,
			wantMessage: "inspect API returned status 503",
		},
		{
			name:    "not json",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotURL string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotURL = r.URL.Query().Get("url")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			inspector := NewHTTPInspector(srv.URL+"/", 0)
			resp, err := inspector.Inspect(context.Background(), link)
			assert.Equal(t, link, gotURL)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			if tt.wantMessage == "" {
				require.NotNil(t, resp.ItemInfo)
				assert.Equal(t, tt.wantFloat, resp.ItemInfo.FloatValue)
				assert.Equal(t, tt.wantSeed, resp.ItemInfo.PaintSeed)
				assert.Equal(t, "AK-47 | Redline", resp.ItemInfo.Extra["full_item_name"])
				return
			}
			assert.Nil(t, resp.ItemInfo)
			assert.Equal(t, tt.wantMessage, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestHTTPInspectorRateLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"iteminfo":{"floatvalue":0.1,"paintseed":1}}`))
	}))
	defer srv.Close()

	inspector := NewHTTPInspector(srv.URL, 30*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := inspector.Inspect(context.Background(), "link")
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestHTTPInspectorCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewHTTPInspector(srv.URL, 0).Inspect(ctx, "link")
	assert.Error(t, err)
}
