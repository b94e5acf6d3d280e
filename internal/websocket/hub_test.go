package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func TestBroadcastFloatUpdate(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		HandleWebSocket(hub, w, r)
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration is asynchronous; keep broadcasting until a frame arrives
	received := make(chan []byte, 1)
	go func() {
		_, data, err := conn.ReadMessage()
		if err == nil {
			received <- data
		}
	}()

	deadline := time.After(2 * time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case data := <-received:
			var frame struct {
				Type string `json:"type"`
				Data struct {
					ListingID string `json:"listing_id"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(data, &frame))
			assert.Equal(t, "float_update", frame.Type)
			assert.Equal(t, "L", frame.Data.ListingID)
			return
		case <-ticker.C:
			BroadcastFloatUpdate(hub, map[string]string{"listing_id": "L"})
		case <-deadline:
			t.Fatal("no websocket frame received")
		}
	}
}
