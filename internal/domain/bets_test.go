package domain

import (
	"testing"
	"time"
)

func TestDisplayStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	cases := []struct {
		name     string
		status   BetStatus
		deadline time.Time
		want     BetStatus
	}{
		{"pending before deadline", BetStatusPending, future, BetStatusPending},
		{"pending after deadline", BetStatusPending, past, BetStatusDeadlinePassed},
		{"active after deadline", BetStatusActive, past, BetStatusDeadlinePassed},
		{"completed after deadline", BetStatusCompleted, past, BetStatusCompleted},
		{"declined after deadline", BetStatusDeclined, past, BetStatusDeclined},
		{"disputed after deadline", BetStatusDisputed, past, BetStatusDisputed},
		{"deadline exactly now", BetStatusPending, now, BetStatusPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DisplayStatus(tc.status, tc.deadline, now); got != tc.want {
				t.Errorf("DisplayStatus(%q) = %q, want %q", tc.status, got, tc.want)
			}
		})
	}
}

func TestBetParticipants(t *testing.T) {
	b := Bet{CreatorID: "u1", OpponentID: "u2", Status: BetStatusPending}

	if !b.IsParticipant("u1") || !b.IsParticipant("u2") {
		t.Fatal("both parties are participants")
	}
	if b.IsParticipant("u3") {
		t.Fatal("u3 is not a participant")
	}

	if got := b.Opponent("u1"); got != "u2" {
		t.Errorf("Opponent(u1) = %q", got)
	}
	if got := b.Opponent("u2"); got != "u1" {
		t.Errorf("Opponent(u2) = %q", got)
	}
	if got := b.Opponent("u3"); got != "" {
		t.Errorf("Opponent(u3) = %q, want empty", got)
	}
}
