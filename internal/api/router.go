// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/itinerary-planner/backend/internal/api/handlers"
	"github.com/itinerary-planner/backend/internal/api/middleware"
	"github.com/itinerary-planner/backend/internal/session"
	"github.com/itinerary-planner/backend/internal/storage"
	"github.com/itinerary-planner/backend/internal/websocket"
)

// NewRouter creates and configures the HTTP router with all API routes.
// db may be nil when the run journal is disabled; staticDir may be empty
// when no UI is served.
func NewRouter(mgr *session.Manager, hub *websocket.Hub, db *storage.DB, staticDir string) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	// API subrouter
	api := r.PathPrefix("/api").Subrouter()

	// Health and grid endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db, mgr, hub)).Methods("GET")
	api.HandleFunc("/timeline", handlers.Timeline(mgr.Grid())).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(mgr, hub)).Methods("GET")

	// Session endpoints
	api.HandleFunc("/sessions", handlers.CreateSession(mgr)).Methods("POST")
	api.HandleFunc("/sessions/{id}", handlers.GetSession(mgr)).Methods("GET")
	api.HandleFunc("/sessions/{id}", handlers.DeleteSession(mgr)).Methods("DELETE")
	api.HandleFunc("/sessions/{id}/trip", handlers.UpdateTrip(mgr)).Methods("PUT")
	api.HandleFunc("/sessions/{id}/days/{day}", handlers.GetDay(mgr)).Methods("GET")
	api.HandleFunc("/sessions/{id}/status", handlers.GetStatus(mgr)).Methods("GET")
	api.HandleFunc("/sessions/{id}/runs", handlers.ListRuns(mgr)).Methods("GET")
	api.HandleFunc("/sessions/{id}/export.ics", handlers.ExportCalendar(mgr)).Methods("GET")

	// Mode endpoints
	api.HandleFunc("/sessions/{id}/mode/manual", handlers.EnterManual(mgr)).Methods("POST")
	api.HandleFunc("/sessions/{id}/reoptimize", handlers.Reoptimize(mgr)).Methods("POST")

	// Drag endpoints
	api.HandleFunc("/sessions/{id}/drag/start", handlers.DragStart(mgr)).Methods("POST")
	api.HandleFunc("/sessions/{id}/drag/drop", handlers.DragDrop(mgr)).Methods("POST")
	api.HandleFunc("/sessions/{id}/drag/cancel", handlers.DragCancel(mgr)).Methods("POST")
	api.HandleFunc("/sessions/{id}/drag", handlers.DragMove(mgr)).Methods("POST")

	// Serve static frontend files
	if staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}

	return r
}
