package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reviewly/reviewly/internal/connections"
	"github.com/reviewly/reviewly/pkg/logger"
)

const maxClientMessage = 8 << 10

type clientMessage struct {
	Type      string `json:"type"`
	Prompt    string `json:"prompt"`
	ProductID string `json:"product_id"`
}

// HandleChatWebSocket subscribes a widget to session events. The widget may
// also submit prompts with {"type":"prompt","prompt":"..."}.
func (b *Bridge) HandleChatWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn(logger.BRIDGE, "Websocket upgrade failed: %v", err)
		return
	}

	timeouts := b.manager.GetTimeouts()
	client := connections.NewClient(conn)
	b.manager.AddClient(client)
	defer b.manager.RemoveClient(client.ID)

	go client.WritePump(timeouts)

	snap := b.session.Snapshot()
	b.sendTo(client, Event{Type: EventSnapshot, Snapshot: &snap})

	conn.SetReadLimit(maxClientMessage)
	conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))
	})

	ctx := context.WithoutCancel(r.Context())
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn(logger.BRIDGE, "Unexpected websocket closure for %s: %v", client.ID, err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(timeouts.PongWait))

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			b.sendTo(client, Event{Type: EventError, Error: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "prompt":
			req := submitRequest{Prompt: msg.Prompt, ProductID: msg.ProductID}
			if err := b.validate.Struct(req); err != nil {
				b.sendTo(client, Event{Type: EventError, Error: "Prompt cannot be empty"})
				continue
			}
			if status, message := b.start(ctx, req); status != http.StatusAccepted {
				b.sendTo(client, Event{Type: EventError, Error: message})
			}
		default:
			b.sendTo(client, Event{Type: EventError, Error: "Unknown message type: " + msg.Type})
		}
	}
}

func (b *Bridge) sendTo(client *connections.Client, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error(logger.BRIDGE, "Failed to encode %s event: %v", event.Type, err)
		return
	}
	client.Send(payload)
}
