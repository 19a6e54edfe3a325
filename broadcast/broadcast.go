// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wfunc/spyserver/game"
	"github.com/wfunc/spyserver/logger"
	"github.com/wfunc/spyserver/room"
	"github.com/wfunc/spyserver/session"
)

var (
	ErrRoomNotFound    = errors.New("room not found")
	ErrDeliveryFailure = errors.New("event could not be delivered to any player")
)

// Report 一次投递的结果
type Report struct {
	Sent   int
	Failed int
}

func (r *Report) add(o Report) {
	r.Sent += o.Sent
	r.Failed += o.Failed
}

// 广播接口
type Broadcaster interface {
	Dispatch(outbound []game.Outbound) Report
	BroadcastToRoom(roomCode string, event any, excludePlayerID string) (Report, error)
	SendToPlayers(playerIDs []string, event any) Report
}

// 基于房间的广播器
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(roomManager *room.Manager, sessionManager *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    roomManager,
		sessionManager: sessionManager,
	}
}

// Dispatch 投递引擎返回的所有事件
func (b *RoomBroadcaster) Dispatch(outbound []game.Outbound) Report {
	var report Report
	for _, o := range outbound {
		report.add(b.SendToPlayers(o.Recipients, o.Event))
	}
	return report
}

func (b *RoomBroadcaster) BroadcastToRoom(roomCode string, event any, excludePlayerID string) (Report, error) {
	r, exists := b.roomManager.Get(roomCode)
	if !exists {
		return Report{}, ErrRoomNotFound
	}

	r.Lock()
	if r.Deleted() {
		r.Unlock()
		return Report{}, ErrRoomNotFound
	}
	recipients := make([]string, 0, r.PlayerCount())
	for _, id := range r.PlayerIDs() {
		if id != excludePlayerID {
			recipients = append(recipients, id)
		}
	}
	r.Unlock()

	return b.SendToPlayers(recipients, event), nil
}

// SendToPlayers 事件只编码一次；找不到或已关闭的连接直接跳过并计数
func (b *RoomBroadcaster) SendToPlayers(playerIDs []string, event any) Report {
	var report Report
	if len(playerIDs) == 0 {
		return report
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorf("Failed to encode %T: %v", event, err)
		report.Failed = len(playerIDs)
		return report
	}

	for _, id := range playerIDs {
		s, ok := b.sessionManager.Lookup(id)
		if !ok {
			report.Failed++
			continue
		}
		if err := s.Send(data); err != nil {
			logger.Log.Debugf("Drop event for player %s: %v", id, err)
			report.Failed++
			continue
		}
		report.Sent++
	}
	return report
}

// RequireDelivery turns a report with zero successful sends into an error.
func RequireDelivery(report Report) error {
	if report.Sent == 0 && report.Failed > 0 {
		return fmt.Errorf("%w: %d failed", ErrDeliveryFailure, report.Failed)
	}
	return nil
}
