// models/models.go
package models

import (
	"time"
)

// VoteTally 最后一轮投票中某个候选人的得票
type VoteTally struct {
	PlayerName string   `json:"player_name"`
	Votes      int      `json:"votes"`
	Voters     []string `json:"voters"`
}

// GameRecord 一局已结束游戏的归档记录
type GameRecord struct {
	ID         uint        `json:"id"`
	RoomCode   string      `json:"room_code"`
	Category   string      `json:"category"`
	Word       string      `json:"word"`
	Winner     string      `json:"winner"`
	Reason     string      `json:"reason"`
	Players    []string    `json:"players"`
	Spies      []string    `json:"spies"`
	Eliminated string      `json:"eliminated"`
	FinalVotes []VoteTally `json:"final_votes"`
	Rounds     int         `json:"rounds"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
}

// Duration 游戏时长
func (r *GameRecord) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
