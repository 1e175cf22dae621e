package validator

import (
	"encoding/json"
	"testing"
	"time"
)

func TestCurrentStatusUnknownByDefault(t *testing.T) {
	s := NewStore()
	got := s.CurrentStatus()
	if got.Evaluated || got.IsReasonable || got.Severity != SeverityInfo || len(got.Warnings) != 0 {
		t.Fatalf("unexpected unknown status %+v", got)
	}
}

func TestSetStatusOverwrites(t *testing.T) {
	s := NewStore()
	fixed := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.SetStatus(Status{IsReasonable: false, Severity: SeveritySevere, Warnings: []Warning{{Type: WarningOvertimeDays, Message: "late"}}})
	s.SetStatus(Status{IsReasonable: true})

	got := s.CurrentStatus()
	if !got.IsReasonable || got.Severity != SeverityInfo || len(got.Warnings) != 0 {
		t.Fatalf("status not overwritten: %+v", got)
	}
	if !got.Evaluated || !got.UpdatedAt.Equal(fixed) {
		t.Fatalf("unexpected bookkeeping %+v", got)
	}
}

func TestCurrentStatusIsACopy(t *testing.T) {
	s := NewStore()
	s.SetStatus(Failure("boom", "retry"))
	got := s.CurrentStatus()
	got.Warnings[0].Message = "changed"
	if s.CurrentStatus().Warnings[0].Message != "boom" {
		t.Fatal("CurrentStatus leaked stored warnings")
	}
}

func TestNormalizeRaisesSeverity(t *testing.T) {
	st := Status{
		Severity: SeverityInfo,
		Warnings: []Warning{
			{Type: WarningEmptyDays, Severity: SeverityWarning},
			{Type: WarningUnscheduledPlaces, Severity: SeveritySevere},
			{Type: "other"},
		},
	}.Normalize()
	if st.Severity != SeveritySevere {
		t.Fatalf("severity = %s", st.Severity)
	}
	if st.Warnings[2].Severity != SeverityInfo {
		t.Fatalf("warning severity not defaulted: %s", st.Warnings[2].Severity)
	}
	if n := len(st.WarningsAtLeast(SeverityWarning)); n != 2 {
		t.Fatalf("WarningsAtLeast(warning) = %d", n)
	}
}

func TestDecodeOptimizerStatus(t *testing.T) {
	payload := `{"is_reasonable":true,"severity":"normal","warnings":[]}`
	var st Status
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if st.Severity != SeverityInfo || !st.IsReasonable {
		t.Fatalf("unexpected decode %+v", st)
	}

	payload = `{"is_reasonable":false,"severity":"severe","warnings":[{"type":"overtime_days","message":"2 days exceed","suggestion":"extend"}]}`
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	st = st.Normalize()
	if st.Warnings[0].Severity != SeveritySevere {
		t.Fatalf("warning did not inherit severity: %+v", st.Warnings[0])
	}
}
