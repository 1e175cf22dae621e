package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/itinerary-planner/backend/internal/storage/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "journal", "itinerary.db"))
	if err != nil {
		t.Fatalf("Open error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsAreIdempotent(t *testing.T) {
	db := openTestDB(t)
	if err := RunMigrations(db); err != nil {
		t.Fatalf("second RunMigrations error = %v", err)
	}

	versions, err := AppliedMigrations(db)
	if err != nil {
		t.Fatalf("AppliedMigrations error = %v", err)
	}
	if len(versions) != 1 || versions[0] != "001_optimizer_runs.sql" {
		t.Fatalf("applied migrations = %v", versions)
	}
}

func TestRunRepositoryRecordAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	severity := "warning"
	failure := "optimizer request failed: timeout"
	runs := []*models.OptimizerRun{
		{SessionID: "s1", Generation: 1, Trigger: models.RunTriggerInitial, TransportMode: "walking",
			StartDate: "2026-10-20", EndDate: "2026-10-22", PlaceCount: 2, EventCount: 3,
			Outcome: models.RunOutcomeApplied, Severity: &severity,
			StartedAt: base, FinishedAt: base.Add(2 * time.Second)},
		{SessionID: "s1", Generation: 3, Trigger: models.RunTriggerReoptimize, TransportMode: "walking",
			StartDate: "2026-10-20", EndDate: "2026-10-22", PlaceCount: 2,
			Outcome: models.RunOutcomeFailed, ErrorMessage: &failure,
			StartedAt: base.Add(time.Minute), FinishedAt: base.Add(time.Minute + time.Second)},
		{SessionID: "s2", Generation: 1, Trigger: models.RunTriggerInitial, TransportMode: "driving",
			StartDate: "2026-11-01", EndDate: "2026-11-01", Outcome: models.RunOutcomeSuperseded,
			StartedAt: base, FinishedAt: base},
	}
	for _, run := range runs {
		if err := repo.Record(ctx, run); err != nil {
			t.Fatalf("Record error = %v", err)
		}
		if run.ID == "" {
			t.Fatal("Record did not assign an id")
		}
	}

	got, err := repo.ListBySession(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("ListBySession error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Generation != 3 || got[0].Outcome != models.RunOutcomeFailed {
		t.Fatalf("newest run = %+v", got[0])
	}
	if got[0].ErrorMessage == nil || *got[0].ErrorMessage != failure || got[0].Severity != nil {
		t.Fatalf("nullable columns not round-tripped: %+v", got[0])
	}
	if got[1].Severity == nil || *got[1].Severity != "warning" || got[1].Duration() != 2*time.Second {
		t.Fatalf("oldest run = %+v", got[1])
	}

	one, err := repo.GetByID(ctx, runs[2].ID)
	if err != nil || one == nil || one.SessionID != "s2" {
		t.Fatalf("GetByID = %+v, %v", one, err)
	}
	missing, err := repo.GetByID(ctx, "nope")
	if err != nil || missing != nil {
		t.Fatalf("GetByID(missing) = %+v, %v", missing, err)
	}
}

func TestRunRepositoryPruneBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		at := base.AddDate(0, 0, i*7)
		err := repo.Record(ctx, &models.OptimizerRun{
			SessionID: "s", Generation: uint64(i + 1), Trigger: models.RunTriggerInitial,
			TransportMode: "walking", StartDate: "2026-10-01", EndDate: "2026-10-02",
			Outcome: models.RunOutcomeApplied, StartedAt: at, FinishedAt: at,
		})
		if err != nil {
			t.Fatalf("Record error = %v", err)
		}
	}

	removed, err := repo.PruneBefore(ctx, base.AddDate(0, 0, 10))
	if err != nil {
		t.Fatalf("PruneBefore error = %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	left, err := repo.ListBySession(ctx, "s", 0)
	if err != nil {
		t.Fatalf("ListBySession error = %v", err)
	}
	if len(left) != 2 || left[1].Generation != 3 {
		t.Fatalf("remaining runs = %d", len(left))
	}
}
