package domain

import "testing"

func TestWinStreak(t *testing.T) {
	w, l := OutcomeWin, OutcomeLoss
	cases := []struct {
		name     string
		outcomes []BetOutcome
		want     int
	}{
		{"empty", nil, 0},
		{"single win", []BetOutcome{w}, 1},
		{"loss first", []BetOutcome{l, w, w}, 0},
		{"broken streak", []BetOutcome{w, w, l, w}, 2},
		{"all wins", []BetOutcome{w, w, w, w, w}, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WinStreak(tc.outcomes); got != tc.want {
				t.Errorf("WinStreak = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestIsComeback(t *testing.T) {
	w, l := OutcomeWin, OutcomeLoss
	cases := []struct {
		name     string
		outcomes []BetOutcome
		want     bool
	}{
		{"too short", []BetOutcome{w, l, l}, false},
		{"win after three losses", []BetOutcome{w, l, l, l}, true},
		{"older history ignored", []BetOutcome{w, l, l, l, w, w}, true},
		{"only two losses", []BetOutcome{w, l, l, w}, false},
		{"loss most recent", []BetOutcome{l, l, l, w}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsComeback(tc.outcomes); got != tc.want {
				t.Errorf("IsComeback(%v) = %v, want %v", tc.outcomes, got, tc.want)
			}
		})
	}
}

func TestCatalogIsConsistent(t *testing.T) {
	if len(AchievementsByID) != len(Achievements) {
		t.Fatalf("catalog has duplicate IDs: %d entries, %d unique", len(Achievements), len(AchievementsByID))
	}
	for id := range TotalBetThresholds {
		if _, ok := AchievementsByID[id]; !ok {
			t.Errorf("threshold %q has no catalog entry", id)
		}
	}
	for id := range WinThresholds {
		if _, ok := AchievementsByID[id]; !ok {
			t.Errorf("threshold %q has no catalog entry", id)
		}
	}
	for id := range StreakThresholds {
		if _, ok := AchievementsByID[id]; !ok {
			t.Errorf("threshold %q has no catalog entry", id)
		}
	}
}
