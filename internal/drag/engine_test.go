package drag

import (
	"errors"
	"math"
	"testing"

	"github.com/itinerary-planner/backend/internal/itinerary"
	"github.com/itinerary-planner/backend/internal/mode"
	"github.com/itinerary-planner/backend/internal/timeline"
)

type modeFlag struct {
	current mode.Mode
}

func (m *modeFlag) Mode() mode.Mode { return m.current }

type fixture struct {
	engine   *Engine
	model    *itinerary.Model
	modes    *modeFlag
	notified [][]itinerary.Event
}

// newFixture builds the three-day walking trip with a restaurant, a transit
// leg and an attraction on day 0.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	grid := timeline.DefaultGrid()
	model := itinerary.NewModel(itinerary.WindowOf(grid))
	events := []itinerary.Event{
		{
			ID: "day0-event0", Kind: itinerary.KindVisit, Title: "Diner", Day: 0,
			Start: timeline.At(9, 0), End: timeline.At(10, 30),
			Place: &itinerary.Place{ID: "r1", Name: "Diner", Types: []string{"restaurant"}},
		},
		{
			ID: "day0-transit0", Kind: itinerary.KindTransit, Title: "Walk", Day: 0,
			Start: timeline.At(10, 30), End: timeline.At(11, 0),
			Mode: itinerary.ModeWalking, Duration: 30,
		},
		{
			ID: "day0-event1", Kind: itinerary.KindVisit, Title: "Museum", Day: 0,
			Start: timeline.At(11, 0), End: timeline.At(13, 0),
			Place: &itinerary.Place{ID: "a1", Name: "Museum", Types: []string{"museum", "tourist_attraction"}},
		},
	}
	if err := model.ReplaceAll(events, 3); err != nil {
		t.Fatalf("ReplaceAll error = %v", err)
	}

	f := &fixture{model: model, modes: &modeFlag{current: mode.Manual}}
	f.engine = NewEngine(grid, model, f.modes, func(events []itinerary.Event) {
		f.notified = append(f.notified, events)
	})
	return f
}

// at returns the pixel offsets of a day row and a clock hour.
func at(day, hour int) (float64, float64) {
	grid := timeline.DefaultGrid()
	return grid.TimeToPosition(timeline.At(hour, 0)), grid.YForDay(day) + grid.RowHeightPx/2
}

func (f *fixture) get(t *testing.T, id string) itinerary.Event {
	t.Helper()
	e, err := f.model.Get(id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	return e
}

func TestDragPastWindowEndIsRejected(t *testing.T) {
	f := newFixture(t)
	before := f.get(t, "day0-event1")

	x, y := at(1, 20)
	out, err := f.engine.Move("day0-event1", x, y)
	if err != nil {
		t.Fatalf("Move error = %v", err)
	}
	if out.Status != StatusRejected || out.Reason != ReasonOutsideWindow || out.Accepted {
		t.Fatalf("outcome = %+v", out)
	}

	after := f.get(t, "day0-event1")
	if after.Day != 0 || after.Start != before.Start || after.End != before.End {
		t.Fatalf("rejected drag moved the event: %+v", after)
	}
	if out.Event == nil || out.Event.Start != before.Start {
		t.Fatalf("outcome does not carry the snap-back position: %+v", out.Event)
	}
	if len(f.notified) != 0 {
		t.Fatalf("rejected drag notified %d times", len(f.notified))
	}
}

func TestDragAcceptedNotifiesOnce(t *testing.T) {
	f := newFixture(t)

	x, y := at(1, 10)
	out, err := f.engine.Move("day0-event1", x, y)
	if err != nil {
		t.Fatalf("Move error = %v", err)
	}
	if out.Status != StatusAccepted || !out.Accepted {
		t.Fatalf("outcome = %+v", out)
	}

	moved := f.get(t, "day0-event1")
	if moved.Day != 1 || moved.Start != timeline.At(10, 0) || moved.End != timeline.At(12, 0) {
		t.Fatalf("moved event = %+v", moved)
	}
	if len(f.notified) != 1 || len(f.notified[0]) != 3 {
		t.Fatalf("notifications = %d", len(f.notified))
	}
}

func TestDragUsesCategoryDuration(t *testing.T) {
	f := newFixture(t)

	x, y := at(2, 19)
	if out, _ := f.engine.Move("day0-event0", x, y); out.Status != StatusAccepted {
		t.Fatalf("restaurant move outcome = %+v", out)
	}
	if got := f.get(t, "day0-event0"); got.End != timeline.At(20, 30) {
		t.Fatalf("restaurant end = %s, want 8:30 PM", got.End)
	}

	// 7 PM plus 120 minutes ends exactly at the window end.
	x, y = at(1, 19)
	if out, _ := f.engine.Move("day0-event1", x, y); out.Status != StatusAccepted {
		t.Fatalf("attraction move outcome = %+v", out)
	}
}

func TestDragOverlapIsRejected(t *testing.T) {
	f := newFixture(t)

	x, y := at(0, 9)
	out, err := f.engine.Move("day0-event1", x, y)
	if err != nil {
		t.Fatalf("Move error = %v", err)
	}
	if out.Status != StatusRejected || out.Reason != ReasonOverlap {
		t.Fatalf("outcome = %+v", out)
	}
	if got := f.get(t, "day0-event1"); got.Start != timeline.At(11, 0) {
		t.Fatalf("event moved after overlap: %+v", got)
	}
}

func TestDragToDayOutsideTripIsRejected(t *testing.T) {
	f := newFixture(t)
	grid := timeline.DefaultGrid()

	for _, y := range []float64{-10, grid.YForDay(3) + 1, grid.YForDay(10)} {
		out, err := f.engine.Move("day0-event1", 100, y)
		if err != nil {
			t.Fatalf("Move error = %v", err)
		}
		if out.Status != StatusRejected || out.Reason != ReasonDayOutOfRange {
			t.Fatalf("y=%v outcome = %+v", y, out)
		}
	}
	if got := f.get(t, "day0-event1"); got.Day != 0 {
		t.Fatalf("event day = %d", got.Day)
	}
}

func TestDragLeftOfWindowClampsToStart(t *testing.T) {
	f := newFixture(t)
	_, y := at(1, 9)

	out, err := f.engine.Move("day0-event1", -250, y)
	if err != nil {
		t.Fatalf("Move error = %v", err)
	}
	if out.Status != StatusAccepted {
		t.Fatalf("outcome = %+v", out)
	}
	if got := f.get(t, "day0-event1"); got.Start != timeline.At(9, 0) {
		t.Fatalf("start = %s, want 9:00 AM", got.Start)
	}
}

func TestTransitIsNotDraggable(t *testing.T) {
	f := newFixture(t)
	before := f.get(t, "day0-transit0")

	out, err := f.engine.Begin("day0-transit0")
	if err != nil {
		t.Fatalf("Begin error = %v", err)
	}
	if out.Status != StatusIgnored || out.Reason != ReasonNotDraggable {
		t.Fatalf("outcome = %+v", out)
	}
	if _, ok := f.engine.Active(); ok {
		t.Fatal("transit drag became active")
	}

	x, y := at(1, 12)
	if out, _ := f.engine.Move("day0-transit0", x, y); out.Status != StatusIgnored {
		t.Fatalf("Move outcome = %+v", out)
	}
	if after := f.get(t, "day0-transit0"); after != before {
		t.Fatalf("transit changed: %+v", after)
	}
}

func TestDragInAutomaticModeIsInert(t *testing.T) {
	f := newFixture(t)
	f.modes.current = mode.Automatic
	before := f.model.All()

	out, err := f.engine.Begin("day0-event1")
	if err != nil {
		t.Fatalf("Begin error = %v", err)
	}
	if out.Status != StatusModeSwitchRequired {
		t.Fatalf("outcome = %+v", out)
	}

	x, y := at(1, 10)
	if out, _ := f.engine.Move("day0-event1", x, y); out.Status != StatusModeSwitchRequired {
		t.Fatalf("Move outcome = %+v", out)
	}

	after := f.model.All()
	for i := range before {
		if after[i].Day != before[i].Day || after[i].Start != before[i].Start {
			t.Fatalf("automatic-mode drag changed %s", after[i].ID)
		}
	}
	if len(f.notified) != 0 {
		t.Fatal("automatic-mode drag notified")
	}
}

func TestDragLifecycle(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Begin("missing"); !errors.Is(err, itinerary.ErrNotFound) {
		t.Fatalf("Begin(missing) error = %v", err)
	}

	if out, _ := f.engine.Drop("day0-event1", 0, 0); out.Reason != ReasonNoActiveDrag {
		t.Fatalf("Drop without Begin = %+v", out)
	}

	if out, _ := f.engine.Begin("day0-event1"); out.Status != StatusStarted {
		t.Fatalf("Begin outcome = %+v", out)
	}
	if id, ok := f.engine.Active(); !ok || id != "day0-event1" {
		t.Fatalf("Active() = %q, %v", id, ok)
	}

	out := f.engine.Cancel()
	if out.Status != StatusCancelled || out.Event.ID != "day0-event1" {
		t.Fatalf("Cancel outcome = %+v", out)
	}
	if _, ok := f.engine.Active(); ok {
		t.Fatal("drag still active after Cancel")
	}

	// A Begin on another event replaces a stale drag.
	f.engine.Begin("day0-event1")
	f.engine.Begin("day0-event0")
	if out, _ := f.engine.Drop("day0-event1", 100, 150); out.Reason != ReasonNoActiveDrag {
		t.Fatalf("Drop of replaced drag = %+v", out)
	}

	f.engine.Reset()
	if _, ok := f.engine.Active(); ok {
		t.Fatal("drag still active after Reset")
	}
}

func TestDragToExtremeCoordinatesIsRejected(t *testing.T) {
	_, dayOne := at(1, 10)
	tests := []struct {
		name   string
		x, y   float64
		reason string
	}{
		{name: "far right", x: 1e300, y: dayOne, reason: ReasonOutsideWindow},
		{name: "positive infinity", x: math.Inf(1), y: dayOne, reason: ReasonInvalidPosition},
		{name: "NaN x", x: math.NaN(), y: dayOne, reason: ReasonInvalidPosition},
		{name: "NaN y", x: 100, y: math.NaN(), reason: ReasonInvalidPosition},
		{name: "far below", x: 100, y: 1e300, reason: ReasonDayOutOfRange},
		{name: "far above", x: 100, y: -1e300, reason: ReasonDayOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.get(t, "day0-event1")

			out, err := f.engine.Move("day0-event1", tt.x, tt.y)
			if err != nil {
				t.Fatalf("Move error = %v", err)
			}
			if out.Accepted || out.Status != StatusRejected || out.Reason != tt.reason {
				t.Fatalf("outcome = %+v", out)
			}
			after := f.get(t, "day0-event1")
			if after.Day != before.Day || after.Start != before.Start || after.End != before.End {
				t.Fatalf("event moved to %s on day %d", after.Start, after.Day)
			}
			if len(f.notified) != 0 {
				t.Fatalf("rejected drag notified %d times", len(f.notified))
			}
		})
	}
}
