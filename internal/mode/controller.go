// Package mode owns the automatic/manual state machine of an itinerary and
// the asynchronous optimizer requests that populate it.
package mode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itinerary-planner/backend/internal/itinerary"
	"github.com/itinerary-planner/backend/internal/optimizer"
	"github.com/itinerary-planner/backend/internal/storage/models"
	"github.com/itinerary-planner/backend/internal/validator"
)

// Mode says who owns the schedule.
type Mode string

const (
	Automatic Mode = "automatic"
	Manual    Mode = "manual"
)

// ConfirmationText is shown before the first switch to manual mode.
const ConfirmationText = "Switching to manual mode lets you drag activities to new times and days. " +
	"The schedule will no longer be checked by the optimizer until you choose Reoptimize, " +
	"and reoptimizing replaces your manual changes."

// ErrConfirmationRequired is returned by the first unconfirmed switch to manual mode.
var ErrConfirmationRequired = errors.New("confirmation required")

// ConfirmationError carries the text the user must acknowledge.
type ConfirmationError struct {
	Text string
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("%v: %s", ErrConfirmationRequired, e.Text)
}

func (e *ConfirmationError) Unwrap() error {
	return ErrConfirmationRequired
}

// Optimizer produces a schedule for a planning request.
type Optimizer interface {
	Optimize(ctx context.Context, request optimizer.Request) (*optimizer.Response, error)
}

// Journal records completed optimizer requests.
type Journal interface {
	Record(ctx context.Context, run *models.OptimizerRun) error
}

// Hooks are called with the session lock held after a state change.
type Hooks struct {
	ModeChanged   func(Mode)
	EventsUpdated func()
	StatusChanged func(validator.Status)
}

// Options configures a Controller.
type Options struct {
	SessionID string
	// Locker serialises every model access of the session.
	Locker    sync.Locker
	Model     *itinerary.Model
	Status    *validator.Store
	Optimizer Optimizer
	Journal   Journal
	Hooks     Hooks
	// Timeout bounds a single optimizer request; zero means no extra bound.
	Timeout time.Duration
}

// Controller is the mode state machine of one session.
//
// Methods other than Ticket.Wait must be called with the session lock held;
// request goroutines take the lock themselves before applying a response.
type Controller struct {
	sessionID string
	locker    sync.Locker
	model     *itinerary.Model
	status    *validator.Store
	optimizer Optimizer
	journal   Journal
	hooks     Hooks
	timeout   time.Duration

	mode       Mode
	confirmed  bool
	closed     bool
	generation uint64
	cancel     context.CancelFunc
	pending    *Ticket
	now        func() time.Time
}

// NewController creates a controller in automatic mode.
func NewController(opts Options) *Controller {
	return &Controller{
		sessionID: opts.SessionID,
		locker:    opts.Locker,
		model:     opts.Model,
		status:    opts.Status,
		optimizer: opts.Optimizer,
		journal:   opts.Journal,
		hooks:     opts.Hooks,
		timeout:   opts.Timeout,
		mode:      Automatic,
		now:       time.Now,
	}
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode { return c.mode }

// Confirmed reports whether the manual mode explanation was acknowledged.
func (c *Controller) Confirmed() bool { return c.confirmed }

// Pending reports whether an optimizer request is in flight.
func (c *Controller) Pending() bool { return c.pending != nil }

// Generation returns the number of the latest optimizer request.
func (c *Controller) Generation() uint64 { return c.generation }

// EnterManual switches to manual mode. The first switch of a session must
// be confirmed; without confirm it returns a *ConfirmationError.
// Any in-flight optimizer request is abandoned.
func (c *Controller) EnterManual(confirm bool) error {
	if c.mode == Manual {
		return nil
	}
	if !c.confirmed && !confirm {
		return &ConfirmationError{Text: ConfirmationText}
	}
	c.confirmed = true
	c.abandon()
	c.setMode(Manual)
	log.Printf("Session %s switched to manual mode", c.sessionID)
	return nil
}

// Plan requests a fresh schedule for trip. Any earlier request is
// superseded. A success replaces the model and switches to automatic mode;
// a failure leaves mode and model unchanged and records a severe status.
func (c *Controller) Plan(trip itinerary.Trip, trigger string) *Ticket {
	ticket := newTicket(trigger)
	if c.closed {
		ticket.finish(OutcomeSuperseded, ErrClosed)
		return ticket
	}

	c.abandon()
	gen := c.generation

	ctx, cancel := c.requestContext()
	c.cancel = cancel
	c.pending = ticket

	go c.run(ctx, cancel, gen, trip, ticket)
	return ticket
}

// Reoptimize hands the schedule back to the optimizer. Manual edits are
// discarded; only the trip's places, dates and transport mode are sent.
func (c *Controller) Reoptimize(trip itinerary.Trip) *Ticket {
	return c.Plan(trip, models.RunTriggerReoptimize)
}

// Close abandons any in-flight request. Later responses are discarded.
func (c *Controller) Close() {
	c.abandon()
	c.closed = true
}

func (c *Controller) requestContext() (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(context.Background(), c.timeout)
	}
	return context.WithCancel(context.Background())
}

// abandon cancels the in-flight request, if any, resolves its ticket and
// starts a new generation so its response is discarded.
func (c *Controller) abandon() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if c.pending != nil {
		c.pending.finish(OutcomeSuperseded, ErrSuperseded)
		c.pending = nil
	}
	c.generation++
}

func (c *Controller) setMode(m Mode) {
	if c.mode == m {
		return
	}
	c.mode = m
	if c.hooks.ModeChanged != nil {
		c.hooks.ModeChanged(m)
	}
}

func (c *Controller) setStatus(s validator.Status) {
	c.status.SetStatus(s)
	if c.hooks.StatusChanged != nil {
		c.hooks.StatusChanged(c.status.CurrentStatus())
	}
}

// run performs one optimizer request and applies its result under the lock.
func (c *Controller) run(ctx context.Context, cancel context.CancelFunc, gen uint64, trip itinerary.Trip, ticket *Ticket) {
	defer cancel()
	started := c.now()
	resp, reqErr := c.optimizer.Optimize(ctx, optimizer.NewRequest(trip))

	c.locker.Lock()
	outcome, err := c.apply(gen, trip, resp, reqErr)
	if c.pending == ticket {
		c.pending = nil
		c.cancel = nil
	}
	c.locker.Unlock()

	ticket.finish(outcome, err)
	c.record(gen, trip, ticket.Trigger, resp, outcome, err, started)
}

func (c *Controller) apply(gen uint64, trip itinerary.Trip, resp *optimizer.Response, reqErr error) (Outcome, error) {
	if c.closed || gen != c.generation {
		log.Printf("Session %s discarded stale optimizer response (generation %d)", c.sessionID, gen)
		return OutcomeSuperseded, ErrSuperseded
	}

	if reqErr != nil {
		log.Printf("Session %s optimizer request failed: %v", c.sessionID, reqErr)
		c.setStatus(validator.Failure(
			"The schedule could not be optimized.",
			"Check your connection and try Reoptimize again."))
		return OutcomeFailed, reqErr
	}

	if err := c.model.ReplaceAll(resp.Events, trip.TotalDays()); err != nil {
		log.Printf("Session %s rejected optimizer schedule: %v", c.sessionID, err)
		c.setStatus(validator.Failure(
			"The optimizer returned an invalid schedule.",
			"Try Reoptimize again or adjust the selected places."))
		return OutcomeFailed, fmt.Errorf("applying schedule: %w", err)
	}

	c.setStatus(resp.Status)
	c.setMode(Automatic)
	if c.hooks.EventsUpdated != nil {
		c.hooks.EventsUpdated()
	}
	log.Printf("Session %s applied optimizer schedule: %d events over %d days",
		c.sessionID, len(resp.Events), trip.TotalDays())
	return OutcomeApplied, nil
}

func (c *Controller) record(gen uint64, trip itinerary.Trip, trigger string, resp *optimizer.Response,
	outcome Outcome, err error, started time.Time) {
	if c.journal == nil {
		return
	}

	run := &models.OptimizerRun{
		ID:            uuid.NewString(),
		SessionID:     c.sessionID,
		Generation:    gen,
		Trigger:       trigger,
		TransportMode: string(trip.TransportMode),
		StartDate:     trip.StartDateString(),
		EndDate:       trip.EndDateString(),
		PlaceCount:    len(trip.Places),
		Outcome:       string(outcome),
		StartedAt:     started.UTC(),
		FinishedAt:    c.now().UTC(),
	}
	if resp != nil {
		run.EventCount = len(resp.Events)
		severity := string(resp.Status.Severity)
		run.Severity = &severity
	}
	if err != nil {
		msg := err.Error()
		run.ErrorMessage = &msg
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.journal.Record(ctx, run); err != nil {
		log.Printf("Error recording optimizer run for session %s: %v", c.sessionID, err)
	}
}
