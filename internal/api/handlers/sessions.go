// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/itinerary-planner/backend/internal/api/middleware"
	"github.com/itinerary-planner/backend/internal/itinerary"
	"github.com/itinerary-planner/backend/internal/mode"
	"github.com/itinerary-planner/backend/internal/session"
)

// waitTimeout bounds how long a ?wait=true request blocks on the optimizer.
const waitTimeout = 90 * time.Second

// Session request/response types

type TripRequest struct {
	StartDate     string            `json:"startDate"`
	EndDate       string            `json:"endDate"`
	TransportMode string            `json:"transportMode"`
	Places        []itinerary.Place `json:"places"`
}

// PlanResponse reports an optimizer request started by a call. Outcome is
// only set when the caller waited for it.
type PlanResponse struct {
	Pending  bool              `json:"pending"`
	Outcome  mode.Outcome      `json:"outcome,omitempty"`
	Error    string            `json:"error,omitempty"`
	Snapshot *session.Snapshot `json:"session"`
}

// CreateSession opens a session and asks the optimizer for its first schedule.
func CreateSession(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		trip, ok := decodeTrip(w, r)
		if !ok {
			return
		}

		s, ticket, err := mgr.Create(trip)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, planResponse(r, s, ticket))
	}
}

// GetSession returns the full presentation state of a session.
func GetSession(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	}
}

// DeleteSession tears a session down. Pending optimizer responses are discarded.
func DeleteSession(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := mgr.Delete(mux.Vars(r)["id"]); err != nil {
			writeSessionError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdateTrip changes the dates, transport mode or places of a session.
func UpdateTrip(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}
		trip, ok := decodeTrip(w, r)
		if !ok {
			return
		}

		ticket, err := s.SetTrip(trip)
		if err != nil {
			writeSessionError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, planResponse(r, s, ticket))
	}
}

// GetDay returns one day's events in start order.
func GetDay(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}
		day, err := strconv.Atoi(mux.Vars(r)["day"])
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Day must be an integer")
			return
		}

		view, err := s.Day(day)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// GetStatus returns the latest schedule status.
func GetStatus(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, s.Status())
	}
}

// ListRuns returns the optimizer run journal of a session.
func ListRuns(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Limit must be a positive integer")
				return
			}
			limit = n
		}

		runs, err := mgr.Runs(r.Context(), mux.Vars(r)["id"], limit)
		if err != nil {
			writeSessionError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func decodeTrip(w http.ResponseWriter, r *http.Request) (itinerary.Trip, bool) {
	var req TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
		return itinerary.Trip{}, false
	}
	if req.StartDate == "" || req.EndDate == "" {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "startDate and endDate are required")
		return itinerary.Trip{}, false
	}

	transport, err := itinerary.ParseTransportMode(req.TransportMode)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
		return itinerary.Trip{}, false
	}

	trip, err := itinerary.NewTrip(req.StartDate, req.EndDate, transport, req.Places)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
		return itinerary.Trip{}, false
	}
	return trip, true
}

// planResponse waits for ticket when the request asked for it with ?wait=true.
func planResponse(r *http.Request, s *session.Session, ticket *mode.Ticket) PlanResponse {
	resp := PlanResponse{Pending: ticket != nil}
	if ticket != nil && wantsWait(r) {
		ctx, cancel := context.WithTimeout(r.Context(), waitTimeout)
		defer cancel()
		outcome, err := ticket.Wait(ctx)
		resp.Pending = outcome == ""
		resp.Outcome = outcome
		if err != nil {
			resp.Error = err.Error()
		}
	}
	snap := s.Snapshot()
	resp.Snapshot = &snap
	return resp
}

func wantsWait(r *http.Request) bool {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	return wait
}

func lookup(w http.ResponseWriter, r *http.Request, mgr *session.Manager) (*session.Session, bool) {
	s, err := mgr.Get(mux.Vars(r)["id"])
	if err != nil {
		writeSessionError(w, err)
		return nil, false
	}
	return s, true
}

// writeSessionError maps domain errors to API errors.
func writeSessionError(w http.ResponseWriter, err error) {
	var confirm *mode.ConfirmationError
	switch {
	case errors.As(err, &confirm):
		middleware.WriteErrorWithDetails(w, http.StatusConflict, middleware.ErrConfirmationRequired,
			"Switching to manual mode must be confirmed", map[string]string{"text": confirm.Text})
	case errors.Is(err, session.ErrSessionNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Session not found")
	case errors.Is(err, itinerary.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Event not found")
	case errors.Is(err, session.ErrDayOutOfRange):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Day not found")
	case errors.Is(err, itinerary.ErrOverlap):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrConflict, err.Error())
	case errors.Is(err, itinerary.ErrOutOfBounds), errors.Is(err, itinerary.ErrInvalidSchedule):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
	default:
		log.Printf("Request failed: %v", err)
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "An unexpected error occurred")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
