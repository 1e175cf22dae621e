package itinerary

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/itinerary-planner/backend/internal/timeline"
)

var (
	museum     = &Place{ID: "p-museum", Name: "British Museum", Types: []string{"tourist_attraction", "museum"}}
	dishoom    = &Place{ID: "p-dishoom", Name: "Dishoom", Types: []string{"restaurant", "food"}}
	hotel      = &Place{ID: "p-hotel", Name: "Savoy", Types: []string{"lodging"}}
	plainPlace = &Place{ID: "p-park", Name: "Hyde Park"}
)

func newTestModel(t *testing.T, days int, events ...Event) *Model {
	t.Helper()
	m := NewModel(WindowOf(timeline.DefaultGrid()))
	if err := m.ReplaceAll(events, days); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}
	return m
}

func visit(id string, day int, start, end timeline.Clock, p *Place) Event {
	return Event{ID: id, Kind: KindVisit, Title: p.Name, Day: day, Start: start, End: end, Place: p}
}

func transit(id string, day int, start, end timeline.Clock) Event {
	return Event{ID: id, Kind: KindTransit, Day: day, Start: start, End: end, Mode: ModeWalking, Duration: float64(end - start)}
}

func ptr[T any](v T) *T { return &v }

func TestByDayOrdersWithoutMutatingStorage(t *testing.T) {
	m := newTestModel(t, 2,
		visit("b", 0, timeline.At(13, 0), timeline.At(14, 30), dishoom),
		transit("t", 0, timeline.At(11, 0), timeline.At(11, 20)),
		visit("a", 0, timeline.At(9, 0), timeline.At(11, 0), museum),
		visit("c", 1, timeline.At(9, 0), timeline.At(11, 0), plainPlace),
	)
	before := m.All()

	got := m.ByDay(0)
	ids := []string{got[0].ID, got[1].ID, got[2].ID}
	if !reflect.DeepEqual(ids, []string{"a", "t", "b"}) {
		t.Fatalf("unexpected order %v", ids)
	}
	if !reflect.DeepEqual(before, m.All()) {
		t.Fatal("ByDay mutated stored order")
	}

	got[0].Place.Name = "changed"
	if e, _ := m.Get("a"); e.Place.Name != "British Museum" {
		t.Fatal("ByDay leaked a reference to stored place")
	}
}

func TestReplaceAllRejectsWholeBatch(t *testing.T) {
	m := newTestModel(t, 1, visit("keep", 0, timeline.At(9, 0), timeline.At(10, 0), museum))

	cases := map[string][]Event{
		"overlap": {
			visit("a", 0, timeline.At(9, 0), timeline.At(11, 0), museum),
			visit("b", 0, timeline.At(10, 30), timeline.At(12, 0), dishoom),
		},
		"duplicate": {
			visit("a", 0, timeline.At(9, 0), timeline.At(10, 0), museum),
			visit("a", 0, timeline.At(11, 0), timeline.At(12, 0), dishoom),
		},
		"day range": {visit("a", 3, timeline.At(9, 0), timeline.At(10, 0), museum)},
		"empty id":  {visit("", 0, timeline.At(9, 0), timeline.At(10, 0), museum)},
		"inverted":  {visit("a", 0, timeline.At(10, 0), timeline.At(9, 0), museum)},
		"no place":  {{ID: "a", Kind: KindVisit, Start: timeline.At(9, 0), End: timeline.At(10, 0)}},
		"bad mode":  {{ID: "t", Kind: KindTransit, Start: timeline.At(9, 0), End: timeline.At(10, 0), Mode: "teleport"}},
	}
	for name, batch := range cases {
		err := m.ReplaceAll(batch, 1)
		if !errors.Is(err, ErrInvalidSchedule) {
			t.Fatalf("%s: error = %v, want ErrInvalidSchedule", name, err)
		}
		if m.Len() != 1 {
			t.Fatalf("%s: batch partially applied", name)
		}
		if _, err := m.Get("keep"); err != nil {
			t.Fatalf("%s: prior state lost: %v", name, err)
		}
	}

	err := m.ReplaceAll(cases["overlap"], 1)
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("overlap cause not preserved: %v", err)
	}
}

func TestReplaceAllAllowsTransitOverlap(t *testing.T) {
	newTestModel(t, 1,
		visit("a", 0, timeline.At(9, 0), timeline.At(11, 0), museum),
		transit("t", 0, timeline.At(10, 0), timeline.At(11, 30)),
	)
}

func TestUpdate(t *testing.T) {
	m := newTestModel(t, 2,
		visit("a", 0, timeline.At(9, 0), timeline.At(11, 0), museum),
		visit("b", 0, timeline.At(12, 0), timeline.At(13, 30), dishoom),
	)

	got, err := m.Update("a", Patch{Start: ptr(timeline.At(14, 0)), End: ptr(timeline.At(16, 0))})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Start != timeline.At(14, 0) || got.End != timeline.At(16, 0) {
		t.Fatalf("unexpected updated event %+v", got)
	}

	before := m.All()
	_, err = m.Update("a", Patch{Start: ptr(timeline.At(13, 0)), End: ptr(timeline.At(15, 0))})
	var overlap *OverlapError
	if !errors.As(err, &overlap) || overlap.ConflictingID != "b" {
		t.Fatalf("expected overlap with b, got %v", err)
	}
	if !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected ErrOverlap, got %v", err)
	}

	if _, err := m.Update("a", Patch{End: ptr(timeline.At(22, 0))}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds for window, got %v", err)
	}
	if _, err := m.Update("a", Patch{Day: ptr(2)}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds for day, got %v", err)
	}
	if _, err := m.Update("missing", Patch{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !reflect.DeepEqual(before, m.All()) {
		t.Fatal("failed updates changed the model")
	}
}

func TestMoveToDay(t *testing.T) {
	m := newTestModel(t, 2,
		visit("a", 0, timeline.At(9, 0), timeline.At(11, 0), museum),
		visit("b", 1, timeline.At(10, 0), timeline.At(11, 30), dishoom),
		visit("c", 0, timeline.At(15, 0), timeline.At(17, 0), plainPlace),
	)

	if _, err := m.MoveToDay("a", 1); !errors.Is(err, ErrOverlap) {
		t.Fatalf("expected overlap moving a to day 1, got %v", err)
	}
	moved, err := m.MoveToDay("c", 1)
	if err != nil {
		t.Fatalf("MoveToDay() error = %v", err)
	}
	if moved.Day != 1 {
		t.Fatalf("unexpected day %d", moved.Day)
	}
	if len(m.ByDay(0)) != 1 || len(m.ByDay(1)) != 2 {
		t.Fatalf("unexpected partition: %d / %d", len(m.ByDay(0)), len(m.ByDay(1)))
	}
}

func TestNoOverlapAfterAcceptedUpdates(t *testing.T) {
	m := newTestModel(t, 3,
		visit("a", 0, timeline.At(9, 0), timeline.At(11, 0), museum),
		visit("b", 0, timeline.At(11, 0), timeline.At(12, 30), dishoom),
		visit("c", 1, timeline.At(9, 0), timeline.At(11, 0), plainPlace),
		visit("d", 2, timeline.At(14, 0), timeline.At(16, 0), museum),
	)
	ids := []string{"a", "b", "c", "d"}
	for step := 0; step < 200; step++ {
		id := ids[step%len(ids)]
		day := (step * 7) % 3
		start := timeline.At(9+(step*5)%11, 0)
		_, _ = m.Update(id, Patch{Day: &day, Start: &start, End: ptr(start.Add(90))})
	}
	for d := 0; d < 3; d++ {
		events := m.ByDay(d)
		for i := range events {
			for j := i + 1; j < len(events); j++ {
				if events[i].Overlaps(events[j]) {
					t.Fatalf("day %d: %s overlaps %s", d, events[i].ID, events[j].ID)
				}
			}
		}
	}
}

func TestPlacesAndMetrics(t *testing.T) {
	m := newTestModel(t, 2,
		visit("a", 0, timeline.At(9, 0), timeline.At(11, 0), museum),
		transit("t", 0, timeline.At(11, 0), timeline.At(11, 25)),
		visit("b", 0, timeline.At(12, 0), timeline.At(13, 30), dishoom),
		visit("c", 1, timeline.At(20, 0), timeline.At(22, 0), museum),
	)
	places := m.Places()
	if len(places) != 2 || places[0].ID != "p-museum" || places[1].ID != "p-dishoom" {
		t.Fatalf("unexpected places %+v", places)
	}
	got := m.Metrics()
	want := Metrics{TotalPlaces: 3, Restaurants: 1, Attractions: 2, TotalTravelMin: 25, OverWindowVisits: 1}
	if got != want {
		t.Fatalf("Metrics() = %+v, want %+v", got, want)
	}
}

func TestCategory(t *testing.T) {
	cases := map[*Place]Category{
		museum:     CategoryAttraction,
		dishoom:    CategoryRestaurant,
		hotel:      CategoryHotel,
		plainPlace: CategoryOther,
		nil:        CategoryOther,
	}
	for p, want := range cases {
		if got := p.Category(); got != want {
			t.Fatalf("Category(%v) = %s, want %s", p, got, want)
		}
	}
	if dishoom.VisitMinutes() != 90 || museum.VisitMinutes() != 120 {
		t.Fatal("unexpected visit minutes")
	}
	if CategoryRestaurant.Palette().Background != "#FF9800" {
		t.Fatal("unexpected restaurant colour")
	}
}

func TestEventJSONFromOptimizer(t *testing.T) {
	payload := `[
		{"id":"day0-event0","title":"British Museum","startTime":"09:00 AM","endTime":"11:00 AM","day":0,
		 "place":{"place_id":"p1","name":"British Museum","types":["tourist_attraction"],"location":{"lat":51.5,"lng":-0.12}},"type":"place"},
		{"id":"day0-transit0","type":"transit","startTime":"11:00 AM","endTime":"11:18 AM","duration":18.4,"mode":"walking","day":0},
		{"id":"x","startTime":"13:00","endTime":"14:00","day":0,"place":{"place_id":"p2","name":"Cafe"}}
	]`
	var events []Event
	if err := json.Unmarshal([]byte(payload), &events); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if events[0].Kind != KindVisit || events[1].Kind != KindTransit || events[2].Kind != KindVisit {
		t.Fatalf("unexpected kinds %s %s %s", events[0].Kind, events[1].Kind, events[2].Kind)
	}
	if events[1].Mode != ModeWalking || events[1].End != timeline.At(11, 18) {
		t.Fatalf("unexpected transit %+v", events[1])
	}
	if events[2].Start != timeline.At(13, 0) {
		t.Fatalf("24-hour time not decoded: %+v", events[2])
	}
}

func TestTrip(t *testing.T) {
	trip, err := NewTrip("2026-10-20", "2026-10-22", ModeWalking, nil)
	if err != nil {
		t.Fatalf("NewTrip() error = %v", err)
	}
	if trip.TotalDays() != 3 {
		t.Fatalf("TotalDays() = %d", trip.TotalDays())
	}
	if trip.Date(2).Format(DateLayout) != "2026-10-22" {
		t.Fatalf("Date(2) = %s", trip.Date(2))
	}
	if _, err := NewTrip("2026-10-22", "2026-10-20", ModeWalking, nil); err == nil {
		t.Fatal("expected error for reversed dates")
	}
	if _, err := NewTrip("2026-10-20", "2026-10-22", "boat", nil); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	if _, err := NewTrip("20-10-2026", "2026-10-22", ModeDriving, nil); err == nil {
		t.Fatal("expected error for bad date")
	}
}

func TestTripLengthIsCapped(t *testing.T) {
	longest, err := NewTrip("2026-01-01", "2026-03-01", ModeDriving, nil)
	if err != nil {
		t.Fatalf("NewTrip() error = %v", err)
	}
	if longest.TotalDays() != MaxTripDays {
		t.Fatalf("TotalDays() = %d, want %d", longest.TotalDays(), MaxTripDays)
	}
	if _, err := NewTrip("2026-01-01", "2026-03-02", ModeDriving, nil); err == nil {
		t.Fatal("expected error for a trip one day too long")
	}
	if _, err := NewTrip("2026-01-01", "9999-12-31", ModeDriving, nil); err == nil {
		t.Fatal("expected error for a far-future end date")
	}
}
