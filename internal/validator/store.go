package validator

import "time"

// Store is a passive holder of the latest schedule status.
// Access is serialised by the owning session.
type Store struct {
	status *Status
	now    func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// SetStatus overwrites the stored status unconditionally.
func (s *Store) SetStatus(status Status) {
	status = status.Normalize()
	status.UpdatedAt = s.now().UTC()
	s.status = &status
}

// CurrentStatus returns the latest status, or Unknown if none was set.
func (s *Store) CurrentStatus() Status {
	if s.status == nil {
		return Unknown()
	}
	out := *s.status
	out.Warnings = append([]Warning{}, s.status.Warnings...)
	return out
}
