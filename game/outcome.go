package game

import (
	"time"
)

// Outbound is one event and the players it must reach.
type Outbound struct {
	Recipients []string
	Event      any
}

// Summary describes a finished game for the archive.
type Summary struct {
	RoomCode   string
	Results    Results
	Players    []string
	Rounds     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Outcome is what an engine operation hands back to the caller. Nothing in
// it has been delivered yet.
type Outcome struct {
	RoomCode string
	// PlayerID is the player created by CreateRoom or JoinRoom.
	PlayerID string
	Outbound []Outbound
	// Removed lists players that are no longer in the room and must be
	// unbound from their connections.
	Removed     []string
	Finished    *Summary
	RoomDeleted bool
}

func (o *Outcome) send(recipients []string, event any) {
	o.Outbound = append(o.Outbound, Outbound{Recipients: recipients, Event: event})
}
