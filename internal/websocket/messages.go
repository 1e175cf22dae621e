package websocket

import (
	"encoding/json"
	"time"

	"github.com/itinerary-planner/backend/internal/mode"
	"github.com/itinerary-planner/backend/internal/session"
	"github.com/itinerary-planner/backend/internal/validator"
)

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeEventsUpdated MessageType = "itinerary.events_updated"
	TypeModeChanged   MessageType = "itinerary.mode_changed"
	TypeStatusChanged MessageType = "itinerary.status_changed"

	// Client -> Server command types
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypePing        MessageType = "ping"

	// Server -> Client response types
	TypeSubscribeAck   MessageType = "subscribe.ack"
	TypeUnsubscribeAck MessageType = "unsubscribe.ack"
	TypePong           MessageType = "pong"
	TypeError          MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// Command is a message sent by a client.
type Command struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscribePayload names the session a subscribe or unsubscribe command is about.
type SubscribePayload struct {
	SessionID string `json:"session_id"`
}

// EventsUpdatedPayload is the payload for itinerary.events_updated events.
type EventsUpdatedPayload struct {
	SessionID string            `json:"session_id"`
	Days      []session.DayView `json:"days"`
}

// ModeChangedPayload is the payload for itinerary.mode_changed events.
type ModeChangedPayload struct {
	SessionID string    `json:"session_id"`
	Mode      mode.Mode `json:"mode"`
}

// StatusChangedPayload is the payload for itinerary.status_changed events.
type StatusChangedPayload struct {
	SessionID string           `json:"session_id"`
	Status    validator.Status `json:"schedule_status"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
