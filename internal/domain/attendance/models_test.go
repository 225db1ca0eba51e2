package attendance

import (
	"testing"
	"time"
)

func TestWorkedHours(t *testing.T) {
	in := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	out := in.Add(7*time.Hour + 30*time.Minute)

	log := Log{ClockIn: &in, ClockOut: &out}
	if got := log.WorkedHours(); got != 7.5 {
		t.Fatalf("expected 7.5 hours, got %v", got)
	}

	open := Log{ClockIn: &in}
	if got := open.WorkedHours(); got != 0 {
		t.Fatalf("open log must report zero hours, got %v", got)
	}

	inverted := Log{ClockIn: &out, ClockOut: &in}
	if got := inverted.WorkedHours(); got != 0 {
		t.Fatalf("inverted pair must report zero hours, got %v", got)
	}
}

func TestAdjustmentDecidable(t *testing.T) {
	for status, want := range map[string]bool{
		AdjustmentPending:  true,
		AdjustmentApproved: false,
		AdjustmentRejected: false,
	} {
		a := Adjustment{Status: status}
		if got := a.Decidable(); got != want {
			t.Fatalf("status %s: decidable = %v, want %v", status, got, want)
		}
	}
}
