// services/record_service.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wfunc/spyserver/game"
	"github.com/wfunc/spyserver/logger"
	"github.com/wfunc/spyserver/models"
	"github.com/wfunc/spyserver/persistence"
)

const saveTimeout = 5 * time.Second

// RecordService 把结束的游戏写入归档
type RecordService struct {
	db persistence.Database
	wg sync.WaitGroup
}

func NewRecordService(db persistence.Database) *RecordService {
	return &RecordService{db: db}
}

// NewGameRecord converts an engine summary into an archive record.
func NewGameRecord(s *game.Summary) *models.GameRecord {
	votes := make([]models.VoteTally, 0, len(s.Results.VoteCounts))
	for _, vc := range s.Results.VoteCounts {
		votes = append(votes, models.VoteTally{
			PlayerName: vc.PlayerName,
			Votes:      vc.Votes,
			Voters:     vc.Voters,
		})
	}
	return &models.GameRecord{
		RoomCode:   s.RoomCode,
		Category:   s.Results.Category,
		Word:       s.Results.Word,
		Winner:     s.Results.Winner,
		Reason:     s.Results.Reason,
		Players:    s.Players,
		Spies:      s.Results.Spies,
		Eliminated: s.Results.EliminatedPlayer,
		FinalVotes: votes,
		Rounds:     s.Rounds,
		StartedAt:  s.StartedAt,
		FinishedAt: s.FinishedAt,
	}
}

// Save 同步保存，带超时
func (s *RecordService) Save(ctx context.Context, summary *game.Summary) (*models.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()

	record := NewGameRecord(summary)
	if err := s.db.SaveGameRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("save game record for room %s: %w", summary.RoomCode, err)
	}
	return record, nil
}

// Archive saves in the background; failures are only logged.
func (s *RecordService) Archive(summary *game.Summary) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		record, err := s.Save(context.Background(), summary)
		if err != nil {
			logger.Log.Errorf("Archive failed: %v", err)
			return
		}
		logger.Log.Infow("game archived", "room", record.RoomCode, "id", record.ID, "winner", record.Winner)
	}()
}

func (s *RecordService) RecentGames(ctx context.Context, limit int) ([]*models.GameRecord, error) {
	return s.db.RecentGameRecords(ctx, limit)
}

// Close 等待后台写入完成后关闭数据库
func (s *RecordService) Close() error {
	s.wg.Wait()
	return s.db.Close()
}
