package websocket

import (
	"encoding/json"
	"fmt"
)

// HandleCommand processes one client command and returns the reply to send
// back. known reports whether a session id may be subscribed to.
func (h *Hub) HandleCommand(client *Client, data []byte, known func(sessionID string) bool) Message {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return NewMessage(TypeError, ErrorPayload{Code: "bad_request", Message: "Invalid command JSON"})
	}

	switch cmd.Type {
	case TypePing:
		return NewMessage(TypePong, nil)

	case TypeSubscribe, TypeUnsubscribe:
		var p SubscribePayload
		if err := json.Unmarshal(cmd.Payload, &p); err != nil || p.SessionID == "" {
			return NewMessage(TypeError, ErrorPayload{
				Code:         "bad_request",
				Message:      "session_id is required",
				OriginalType: string(cmd.Type),
			})
		}
		if cmd.Type == TypeUnsubscribe {
			h.Unsubscribe(client, p.SessionID)
			return NewMessage(TypeUnsubscribeAck, p)
		}
		if known != nil && !known(p.SessionID) {
			return NewMessage(TypeError, ErrorPayload{
				Code:         "not_found",
				Message:      fmt.Sprintf("Session %s not found", p.SessionID),
				OriginalType: string(cmd.Type),
			})
		}
		h.Subscribe(client, p.SessionID)
		return NewMessage(TypeSubscribeAck, p)

	default:
		return NewMessage(TypeError, ErrorPayload{
			Code:         "unknown_command",
			Message:      fmt.Sprintf("Unknown command %q", cmd.Type),
			OriginalType: string(cmd.Type),
		})
	}
}
