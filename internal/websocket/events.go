package websocket

import (
	"log"

	"github.com/itinerary-planner/backend/internal/mode"
	"github.com/itinerary-planner/backend/internal/session"
	"github.com/itinerary-planner/backend/internal/validator"
)

// EventBroadcaster turns session changes into WebSocket messages.
// It implements session.Listener.
type EventBroadcaster struct {
	hub *Hub
}

var _ session.Listener = (*EventBroadcaster)(nil)

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// EventsUpdated sends the full schedule after every accepted change.
func (b *EventBroadcaster) EventsUpdated(sessionID string, days []session.DayView) {
	msg := NewMessage(TypeEventsUpdated, EventsUpdatedPayload{SessionID: sessionID, Days: days})
	b.broadcast(sessionID, msg)
}

// ModeChanged sends a mode transition.
func (b *EventBroadcaster) ModeChanged(sessionID string, m mode.Mode) {
	msg := NewMessage(TypeModeChanged, ModeChangedPayload{SessionID: sessionID, Mode: m})
	b.broadcast(sessionID, msg)
}

// StatusChanged sends a new schedule status.
func (b *EventBroadcaster) StatusChanged(sessionID string, status validator.Status) {
	msg := NewMessage(TypeStatusChanged, StatusChangedPayload{SessionID: sessionID, Status: status})
	b.broadcast(sessionID, msg)
}

// broadcast serializes and sends a message to a session's subscribers.
func (b *EventBroadcaster) broadcast(sessionID string, msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Failed to serialize WebSocket message: %v", err)
		return
	}

	b.hub.Broadcast(sessionID, data)
}
