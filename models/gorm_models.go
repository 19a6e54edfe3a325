// models/gorm_models.go
package models

import (
	"time"

	"gorm.io/gorm"
)

// GormGameRecord 游戏记录表
type GormGameRecord struct {
	gorm.Model
	RoomCode   string      `gorm:"index;size:6;not null"`
	Category   string      `gorm:"size:64;not null"`
	Word       string      `gorm:"size:64;not null"`
	Winner     string      `gorm:"index;size:16;not null"`
	Reason     string      `gorm:"size:255"`
	Players    []string    `gorm:"serializer:json;type:jsonb;not null"`
	Spies      []string    `gorm:"serializer:json;type:jsonb;not null"`
	Eliminated string      `gorm:"size:64"`
	FinalVotes []VoteTally `gorm:"serializer:json;type:jsonb"`
	Rounds     int         `gorm:"default:1"`
	StartedAt  time.Time
	FinishedAt time.Time `gorm:"index"`
	Duration   int       `gorm:"default:0"` // 游戏时长(秒)
}

func (GormGameRecord) TableName() string {
	return "game_records"
}

func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	return &GormGameRecord{
		RoomCode:   r.RoomCode,
		Category:   r.Category,
		Word:       r.Word,
		Winner:     r.Winner,
		Reason:     r.Reason,
		Players:    r.Players,
		Spies:      r.Spies,
		Eliminated: r.Eliminated,
		FinalVotes: r.FinalVotes,
		Rounds:     r.Rounds,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Duration:   int(r.Duration().Seconds()),
	}
}

func (g *GormGameRecord) Record() *GameRecord {
	return &GameRecord{
		ID:         g.ID,
		RoomCode:   g.RoomCode,
		Category:   g.Category,
		Word:       g.Word,
		Winner:     g.Winner,
		Reason:     g.Reason,
		Players:    g.Players,
		Spies:      g.Spies,
		Eliminated: g.Eliminated,
		FinalVotes: g.FinalVotes,
		Rounds:     g.Rounds,
		StartedAt:  g.StartedAt,
		FinishedAt: g.FinishedAt,
	}
}
