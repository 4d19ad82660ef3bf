package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/reviewly/reviewly/internal/infrastructure/reviewly"
)

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

const timestampLayout = "15:04:05"

// ChatMessage is one rendered entry of a conversation. Messages are values: the
// session replaces the tail element rather than mutating it in place.
type ChatMessage struct {
	ID        string             `json:"id"`
	Sender    Sender             `json:"sender"`
	Text      string             `json:"text"`
	Timestamp time.Time          `json:"timestamp"`
	ReviewIDs []int              `json:"review_ids"`
	Products  []reviewly.Product `json:"products"`
	IsStatus  bool               `json:"is_status"`
}

// TimeLabel is the clock label shown next to the message
func (m ChatMessage) TimeLabel() string {
	return m.Timestamp.Format(timestampLayout)
}

func newMessage(sender Sender, text string, now time.Time) ChatMessage {
	return ChatMessage{
		ID:        uuid.New().String(),
		Sender:    sender,
		Text:      text,
		Timestamp: now,
		ReviewIDs: []int{},
		Products:  []reviewly.Product{},
	}
}

// AdditionalData is handed to the observer when a response first references
// products or reviews. Exactly one of the fields is set.
type AdditionalData struct {
	Products []reviewly.Product `json:"products,omitempty"`
	Reviews  []int              `json:"reviews,omitempty"`
}
