package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/itinerary-planner/backend/internal/export"
	"github.com/itinerary-planner/backend/internal/session"
)

// ExportCalendar downloads the current schedule as an iCalendar file.
func ExportCalendar(mgr *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := lookup(w, r, mgr)
		if !ok {
			return
		}

		body := export.Calendar(s.Trip(), s.Days(), time.Now().UTC())

		w.Header().Set("Content-Type", export.ContentType+"; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", export.FileName))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(body)); err != nil {
			log.Printf("Failed to write calendar for session %s: %v", s.ID, err)
		}
	}
}
