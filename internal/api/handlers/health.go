package handlers

import (
	"net/http"

	"github.com/itinerary-planner/backend/internal/session"
	"github.com/itinerary-planner/backend/internal/storage"
	"github.com/itinerary-planner/backend/internal/timeline"
	"github.com/itinerary-planner/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	Journal     bool   `json:"journal"`
	DBConnected bool   `json:"db_connected"`
	Sessions    int    `json:"sessions"`
	Clients     int    `json:"ws_clients"`
}

// HealthCheck returns a handler that performs a health check. db is nil
// when the run journal is disabled.
func HealthCheck(db *storage.DB, mgr *session.Manager, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := HealthResponse{
			Status:   "healthy",
			Journal:  db != nil,
			Sessions: mgr.Count(),
			Clients:  hub.ClientCount(),
		}

		status := http.StatusOK
		if db != nil {
			response.DBConnected = db.PingContext(r.Context()) == nil
			if !response.DBConnected {
				response.Status = "degraded"
				status = http.StatusServiceUnavailable
			}
		}

		writeJSON(w, status, response)
	}
}

// TimelineResponse describes the grid shared by all sessions.
type TimelineResponse struct {
	Grid        timeline.Grid `json:"grid"`
	WindowStart string        `json:"window_start"`
	WindowEnd   string        `json:"window_end"`
	Width       float64       `json:"width"`
}

// Timeline returns the grid geometry the client draws with.
func Timeline(grid timeline.Grid) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, TimelineResponse{
			Grid:        grid,
			WindowStart: timeline.FormatTime(grid.WindowStart()),
			WindowEnd:   timeline.FormatTime(grid.WindowEnd()),
			Width:       grid.Width(),
		})
	}
}
