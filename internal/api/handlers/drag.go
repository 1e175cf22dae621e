package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/itinerary-planner/backend/internal/api/middleware"
	"github.com/itinerary-planner/backend/internal/session"
)

// Drag request types

type DragStartRequest struct {
	EventID string `json:"event_id"`
}

// DragDropRequest carries the pointer position in timeline pixels.
type DragDropRequest struct {
	EventID string  `json:"event_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// DragStart begins dragging an event.
func DragStart(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}

		var req DragStartRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.EventID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "event_id is required")
			return
		}

		out, err := s.BeginDrag(req.EventID)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session.NewDragResult(s.Grid(), out))
	}
}

// DragDrop ends the active drag. Rejected drops are not errors: the
// response reports accepted=false with the event at its original place.
func DragDrop(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}

		var req DragDropRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.EventID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "event_id is required")
			return
		}

		out, err := s.Drop(req.EventID, req.X, req.Y)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session.NewDragResult(s.Grid(), out))
	}
}

// DragCancel abandons the active drag.
func DragCancel(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, session.NewDragResult(s.Grid(), s.CancelDrag()))
	}
}

// DragMove starts and drops a drag in one request.
func DragMove(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}

		var req DragDropRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.EventID == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "event_id is required")
			return
		}

		out, err := s.Move(req.EventID, req.X, req.Y)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, session.NewDragResult(s.Grid(), out))
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
		return false
	}
	return true
}
