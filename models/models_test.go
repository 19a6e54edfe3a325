package models

import (
	"testing"
	"time"
)

func TestGameRecord_Duration(t *testing.T) {
	start := time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC)
	r := &GameRecord{StartedAt: start, FinishedAt: start.Add(90 * time.Second)}
	if r.Duration() != 90*time.Second {
		t.Errorf("Expected 90s, got %v", r.Duration())
	}

	if (&GameRecord{FinishedAt: start}).Duration() != 0 {
		t.Error("A record without a start time has no duration")
	}
}

func TestGormGameRecord_RoundTrip(t *testing.T) {
	start := time.Date(2026, 1, 2, 20, 0, 0, 0, time.UTC)
	r := &GameRecord{
		RoomCode:   "123456",
		Category:   "Hayvanlar",
		Word:       "Kedi",
		Winner:     "civilians",
		Players:    []string{"A", "B", "C"},
		Spies:      []string{"B"},
		Eliminated: "B",
		FinalVotes: []VoteTally{{PlayerName: "B", Votes: 3, Voters: []string{"A", "B", "C"}}},
		Rounds:     1,
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Minute),
	}

	g := NewGormGameRecord(r)
	if g.Duration != 120 {
		t.Errorf("Expected 120 seconds, got %d", g.Duration)
	}
	back := g.Record()
	if back.RoomCode != r.RoomCode || back.Word != r.Word || len(back.FinalVotes) != 1 || back.Spies[0] != "B" {
		t.Errorf("Record lost data: %+v", back)
	}
}
