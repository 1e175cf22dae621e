package session

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/itinerary-planner/backend/internal/itinerary"
	"github.com/itinerary-planner/backend/internal/mode"
	"github.com/itinerary-planner/backend/internal/storage/models"
	"github.com/itinerary-planner/backend/internal/timeline"
)

// RunStore is the optimizer run journal.
type RunStore interface {
	mode.Journal
	ListBySession(ctx context.Context, sessionID string, limit int) ([]*models.OptimizerRun, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config controls session lifetime and background maintenance.
type Config struct {
	Grid timeline.Grid
	// OptimizerTimeout bounds each optimizer request.
	OptimizerTimeout time.Duration
	// IdleTimeout closes sessions unused for this long; zero disables it.
	IdleTimeout time.Duration
	// SweepSchedule is the cron spec for the idle sweep.
	SweepSchedule string
	// JournalRetention is how long optimizer runs are kept; zero keeps them forever.
	JournalRetention time.Duration
	// PruneSchedule is the cron spec for journal pruning.
	PruneSchedule string
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Grid:             timeline.DefaultGrid(),
		OptimizerTimeout: 60 * time.Second,
		IdleTimeout:      2 * time.Hour,
		SweepSchedule:    "@every 5m",
		JournalRetention: 30 * 24 * time.Hour,
		PruneSchedule:    "@daily",
	}
}

// Manager owns every open session.
type Manager struct {
	config    Config
	optimizer mode.Optimizer
	runs      RunStore
	cron      *cron.Cron
	now       func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
	listener Listener
}

// NewManager creates a session manager. runs may be nil.
func NewManager(config Config, optimizer mode.Optimizer, runs RunStore) *Manager {
	return &Manager{
		config:    config,
		optimizer: optimizer,
		runs:      runs,
		cron:      cron.New(),
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}
}

// SetListener sets the receiver of session changes for sessions created afterwards.
func (m *Manager) SetListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

// Grid returns the timeline grid used by new sessions.
func (m *Manager) Grid() timeline.Grid { return m.config.Grid }

// Create opens a session for trip and requests its first schedule.
func (m *Manager) Create(trip itinerary.Trip) (*Session, *mode.Ticket, error) {
	if err := trip.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid trip: %w", err)
	}

	m.mu.Lock()
	listener := m.listener
	m.mu.Unlock()

	d := deps{
		grid:      m.config.Grid,
		optimizer: m.optimizer,
		listener:  listener,
		timeout:   m.config.OptimizerTimeout,
		now:       m.now,
	}
	if m.runs != nil {
		d.journal = m.runs
	}

	s := newSession(uuid.NewString(), trip, d)
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	ticket := s.start()
	log.Printf("Session %s created (%d days, %d places, %s)",
		s.ID, trip.TotalDays(), len(trip.Places), trip.TransportMode)
	return s, ticket, nil
}

// Get returns an open session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Delete closes and forgets a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	log.Printf("Session %s closed", id)
	return nil
}

// IDs returns the ids of every open session, sorted.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Runs returns the journal entries of a session, newest first.
func (m *Manager) Runs(ctx context.Context, id string, limit int) ([]*models.OptimizerRun, error) {
	if _, err := m.Get(id); err != nil {
		return nil, err
	}
	if m.runs == nil {
		return []*models.OptimizerRun{}, nil
	}
	runs, err := m.runs.ListBySession(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("listing optimizer runs: %w", err)
	}
	if runs == nil {
		runs = []*models.OptimizerRun{}
	}
	return runs, nil
}

// Start begins background maintenance.
func (m *Manager) Start() error {
	log.Println("Starting session maintenance...")

	if m.config.IdleTimeout > 0 {
		if _, err := m.cron.AddFunc(m.config.SweepSchedule, func() {
			m.SweepIdle()
		}); err != nil {
			return fmt.Errorf("scheduling idle sweep: %w", err)
		}
	}

	if m.runs != nil && m.config.JournalRetention > 0 {
		if _, err := m.cron.AddFunc(m.config.PruneSchedule, func() {
			m.PruneJournal(context.Background())
		}); err != nil {
			return fmt.Errorf("scheduling journal pruning: %w", err)
		}
	}

	m.cron.Start()
	log.Println("Session maintenance started")
	return nil
}

// Stop halts maintenance and closes every session.
func (m *Manager) Stop() {
	log.Println("Stopping session maintenance...")
	ctx := m.cron.Stop()
	<-ctx.Done()

	for _, id := range m.IDs() {
		_ = m.Delete(id)
	}
	log.Println("Session maintenance stopped")
}

// SweepIdle closes sessions idle for longer than the idle timeout.
func (m *Manager) SweepIdle() int {
	if m.config.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.config.IdleTimeout)

	m.mu.RLock()
	var idle []string
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range idle {
		if err := m.Delete(id); err == nil {
			log.Printf("Closed idle session %s", id)
		}
	}
	return len(idle)
}

// PruneJournal removes optimizer runs older than the retention period.
func (m *Manager) PruneJournal(ctx context.Context) {
	if m.runs == nil || m.config.JournalRetention <= 0 {
		return
	}
	removed, err := m.runs.PruneBefore(ctx, m.now().Add(-m.config.JournalRetention))
	if err != nil {
		log.Printf("Failed to prune optimizer runs: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("Pruned %d optimizer runs", removed)
	}
}
