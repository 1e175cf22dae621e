package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/itinerary-planner/backend/internal/api/middleware"
	"github.com/itinerary-planner/backend/internal/session"
)

// ManualModeRequest confirms the switch to manual mode.
type ManualModeRequest struct {
	Confirm bool `json:"confirm"`
}

// EnterManual hands the schedule to the user. Without confirm the first
// switch answers 409 with the text to show in the confirmation dialog.
func EnterManual(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}

		var req ManualModeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if err := s.EnterManual(req.Confirm); err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

// Reoptimize asks the optimizer for a fresh schedule and returns to
// automatic mode once it arrives. The request is answered with 202 unless
// the caller waits; optimizer failures are reported in the session status.
func Reoptimize(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}

		resp := planResponse(r, s, s.Reoptimize())
		status := http.StatusAccepted
		if !resp.Pending {
			status = http.StatusOK
		}
		writeJSON(w, status, resp)
	}
}
