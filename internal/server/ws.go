package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/glongrais/Portfolio-Balancer-sub000/internal/events"
)

// wsWriteTimeout bounds a single frame write to a client.
const wsWriteTimeout = 5 * time.Second

// EventsWSHandler streams domain events to websocket clients.
// Each client gets its own hub subscription; the stream is write-only.
type EventsWSHandler struct {
	hub *events.Hub
	log zerolog.Logger
}

// NewEventsWSHandler creates a new websocket events handler
func NewEventsWSHandler(hub *events.Hub, log zerolog.Logger) *EventsWSHandler {
	return &EventsWSHandler{
		hub: hub,
		log: log.With().Str("handler", "events_ws").Logger(),
	}
}

// ServeHTTP upgrades the connection and forwards events until the client
// disconnects
// GET /api/events/ws
func (h *EventsWSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// CORS is enforced by the router middleware; accept any origin here
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	stream, unsubscribe := h.hub.Subscribe()
	defer unsubscribe()

	h.log.Debug().Msg("Websocket client connected")

	// CloseRead discards inbound frames and cancels the context when the
	// client goes away
	ctx := conn.CloseRead(r.Context())

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "")
			h.log.Debug().Msg("Websocket client disconnected")
			return
		case event, ok := <-stream:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			if err := h.writeEvent(ctx, conn, event); err != nil {
				h.log.Debug().Err(err).Msg("Websocket write failed, dropping client")
				return
			}
		}
	}
}

func (h *EventsWSHandler) writeEvent(ctx context.Context, conn *websocket.Conn, event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()

	return conn.Write(writeCtx, websocket.MessageText, data)
}
