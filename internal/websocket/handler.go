package websocket

import (
	"encoding/json"
	"net/http"

	"github.com/z32nissan/CSGOFloat-Extension/internal/logger"
)

func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Logger.Warn().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case hub.register <- client:
	case <-hub.done:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func BroadcastFloatUpdate(hub *Hub, update interface{}) {
	message, err := json.Marshal(map[string]interface{}{
		"type": "float_update",
		"data": update,
	})
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to marshal float update")
		return
	}

	hub.Broadcast(message)
}
