package game

import (
	"github.com/wfunc/spyserver/room"
)

// 服务端下发的事件类型
const (
	EventRoomCreated       = "roomCreated"
	EventRoomJoined        = "roomJoined"
	EventPlayerJoined      = "playerJoined"
	EventPlayerLeft        = "playerLeft"
	EventGameStarted       = "gameStarted"
	EventWordShown         = "wordShown"
	EventDiscussionStarted = "discussionStarted"
	EventVotingStarted     = "votingStarted"
	EventVoteUpdate        = "voteUpdate"
	EventPlayerEliminated  = "playerEliminated"
	EventGameFinished      = "gameFinished"
	EventGameRestarted     = "gameRestarted"
)

const (
	WinnerSpies     = "spies"
	WinnerCivilians = "civilians"
)

// RoomEvent covers every event that only carries a room snapshot.
type RoomEvent struct {
	Type string    `json:"type"`
	Room room.View `json:"room"`
}

// RoomEntered is sent to the creator or joiner of a room.
type RoomEntered struct {
	Type     string    `json:"type"`
	PlayerID string    `json:"playerId"`
	Room     room.View `json:"room"`
}

type PlayerJoined struct {
	Type   string          `json:"type"`
	Player room.PlayerView `json:"player"`
	Room   room.View       `json:"room"`
}

type PlayerLeft struct {
	Type       string    `json:"type"`
	PlayerID   string    `json:"playerId"`
	PlayerName string    `json:"playerName"`
	Room       room.View `json:"room"`
}

// WordShown is personalised per recipient. Word is null for spies.
type WordShown struct {
	Type            string    `json:"type"`
	Word            *string   `json:"word"`
	IsSpy           bool      `json:"isSpy"`
	Category        string    `json:"category"`
	SpyCount        *int      `json:"spyCount"`
	OtherSpies      []string  `json:"otherSpies"`
	SpyHintsEnabled bool      `json:"spyHintsEnabled"`
	Room            room.View `json:"room"`
}

type VoteUpdate struct {
	Type         string `json:"type"`
	VotedCount   int    `json:"votedCount"`
	TotalPlayers int    `json:"totalPlayers"`
}

// VoteCount 每个候选人的得票
type VoteCount struct {
	PlayerID   string   `json:"playerId"`
	PlayerName string   `json:"playerName"`
	Votes      int      `json:"votes"`
	Voters     []string `json:"voters"`
}

type PlayerEliminated struct {
	Type               string      `json:"type"`
	EliminatedPlayer   string      `json:"eliminatedPlayer"`
	EliminatedPlayerID string      `json:"eliminatedPlayerId"`
	IsSpy              bool        `json:"isSpy"`
	GameOver           bool        `json:"gameOver"`
	SpiesRemaining     int         `json:"spiesRemaining"`
	VoteCounts         []VoteCount `json:"voteCounts"`
	Room               room.View   `json:"room"`
}

// Results 游戏结束时公开的结果
type Results struct {
	SpiesWon         bool        `json:"spiesWon"`
	Winner           string      `json:"winner"`
	Reason           string      `json:"reason"`
	Word             string      `json:"word"`
	Category         string      `json:"category"`
	Spies            []string    `json:"spies"`
	EliminatedPlayer string      `json:"eliminatedPlayer"`
	VoteCounts       []VoteCount `json:"voteCounts"`
}

type GameFinished struct {
	Type    string    `json:"type"`
	Results Results   `json:"results"`
	Room    room.View `json:"room"`
}

func roomEvent(typ string, r *room.Room) RoomEvent {
	return RoomEvent{Type: typ, Room: r.View()}
}
