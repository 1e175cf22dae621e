package mode

import (
	"context"
	"errors"
	"sync"

	"github.com/itinerary-planner/backend/internal/storage/models"
)

// Outcome is how an optimizer request ended.
type Outcome string

const (
	OutcomeApplied    Outcome = models.RunOutcomeApplied
	OutcomeFailed     Outcome = models.RunOutcomeFailed
	OutcomeSuperseded Outcome = models.RunOutcomeSuperseded
)

var (
	// ErrSuperseded is reported for a request replaced by a newer one.
	ErrSuperseded = errors.New("optimizer request superseded")
	// ErrClosed is reported for requests made or finished after Close.
	ErrClosed = errors.New("controller closed")
)

// Ticket tracks one optimizer request.
type Ticket struct {
	Trigger string

	once    sync.Once
	done    chan struct{}
	outcome Outcome
	err     error
}

func newTicket(trigger string) *Ticket {
	return &Ticket{Trigger: trigger, done: make(chan struct{})}
}

func (t *Ticket) finish(outcome Outcome, err error) {
	t.once.Do(func() {
		t.outcome = outcome
		t.err = err
		close(t.done)
	})
}

// Done is closed once the request has an outcome.
func (t *Ticket) Done() <-chan struct{} { return t.done }

// Wait blocks until the request ends or ctx is done.
func (t *Ticket) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-t.done:
		return t.outcome, t.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
