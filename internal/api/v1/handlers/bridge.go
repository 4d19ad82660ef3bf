package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"

	"github.com/reviewly/reviewly/internal/config"
	"github.com/reviewly/reviewly/internal/connections"
	"github.com/reviewly/reviewly/internal/services"
	"github.com/reviewly/reviewly/internal/services/chat"
	"github.com/reviewly/reviewly/internal/services/reviews"
	"github.com/reviewly/reviewly/pkg/logger"
)

// Event types pushed to widgets over the websocket
const (
	EventSnapshot       = "snapshot"
	EventAdditionalData = "additional_data"
	EventSelectPage     = "select_page"
	EventScrollTo       = "scroll_to"
	EventError          = "error"
)

type Event struct {
	Type     string               `json:"type"`
	Snapshot *chat.Snapshot       `json:"snapshot,omitempty"`
	Data     *chat.AdditionalData `json:"data,omitempty"`
	Page     int                  `json:"page,omitempty"`
	ReviewID int                  `json:"review_id,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// Bridge exposes one chat session to browser widgets
type Bridge struct {
	session  *chat.Session
	resolver *reviews.Resolver
	manager  *connections.Manager
	upgrader websocket.Upgrader
	validate *validator.Validate
}

// NewBridge subscribes to the session so every change reaches connected widgets
func NewBridge(svcs *services.Services, manager *connections.Manager, cfg config.BridgeConfig) *Bridge {
	b := &Bridge{
		session:  svcs.GetChatSession(),
		resolver: svcs.GetReviewResolver(),
		manager:  manager,
		validate: validator.New(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return cfg.OriginAllowed(r.Header.Get("Origin"))
			},
		},
	}

	b.session.OnChange(func(snap chat.Snapshot) {
		b.publish(Event{Type: EventSnapshot, Snapshot: &snap})
	})
	b.session.OnAdditionalData(func(data chat.AdditionalData) {
		b.publish(Event{Type: EventAdditionalData, Data: &data})
	})

	return b
}

func (b *Bridge) publish(event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error(logger.BRIDGE, "Failed to encode %s event: %v", event.Type, err)
		return
	}
	b.manager.Broadcast(payload)
}

// widgetSelector drives review pagination in every connected widget
type widgetSelector struct {
	bridge *Bridge
}

func (s widgetSelector) SelectPage(page int) {
	s.bridge.publish(Event{Type: EventSelectPage, Page: page})
}

func (s widgetSelector) ScrollTo(reviewID int) {
	s.bridge.publish(Event{Type: EventScrollTo, ReviewID: reviewID})
}
