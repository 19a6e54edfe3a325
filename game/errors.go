package game

import (
	"errors"

	"github.com/wfunc/spyserver/room"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrInvalidPhase     = errors.New("operation not allowed in the current phase")
	ErrNotHost          = errors.New("only the host can do this")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrNameTaken        = errors.New("name already taken in this room")
	ErrRoomFull         = errors.New("room is full")
	ErrVotingClosed     = errors.New("voting is not open")
	ErrPlayerNotFound   = errors.New("player not found in room")
	ErrNoRoomCode       = room.ErrNoRoomCode
)
