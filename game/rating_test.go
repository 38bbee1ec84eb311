package game

import (
	"testing"
	"time"
)

func TestComputeRating(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	daysAgo := func(days int) time.Time { return now.AddDate(0, 0, -days) }

	tests := []struct {
		name    string
		results []RoundResult
		want    int
	}{
		{name: "no rounds", results: nil, want: 0},
		{
			name:    "fresh win carries full weight",
			results: []RoundResult{{Score: 50, Won: true, FinishedAt: now}},
			want:    90,
		},
		{
			name:    "fresh draw",
			results: []RoundResult{{Score: 50, Drawn: true, FinishedAt: now}},
			want:    70,
		},
		{
			name:    "ten days shave thirty percent",
			results: []RoundResult{{Score: 100, FinishedAt: daysAgo(10)}},
			want:    70,
		},
		{
			name:    "old rounds fade to zero",
			results: []RoundResult{{Score: 100, Won: true, FinishedAt: daysAgo(34)}},
			want:    0,
		},
		{
			name: "decay never goes negative",
			results: []RoundResult{
				{Score: 100, Won: true, FinishedAt: daysAgo(365)},
				{Score: 50, FinishedAt: now},
			},
			want: 50,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.ComputeRating(tt.results, now); got != tt.want {
				t.Fatalf("ComputeRating = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeRatingWindow(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// eleven same-day rounds: only the ten most recent count
	var results []RoundResult
	for i := 0; i < 11; i++ {
		results = append(results, RoundResult{
			Score:      10,
			FinishedAt: now.Add(-time.Duration(i) * time.Minute),
		})
	}
	if got := cfg.ComputeRating(results, now); got != 100 {
		t.Fatalf("ComputeRating = %d, want 100", got)
	}
}

func TestComputeDuelRating(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// no decay in the duel ledger, however old the round
	results := []RoundResult{
		{Score: 30, Won: true, FinishedAt: now.AddDate(0, 0, -100)},
		{Score: 20, Drawn: true, FinishedAt: now.AddDate(0, 0, -50)},
		{Score: 10, FinishedAt: now},
	}
	if got := cfg.ComputeDuelRating(results); got != 120 {
		t.Fatalf("ComputeDuelRating = %d, want 120", got)
	}
}
