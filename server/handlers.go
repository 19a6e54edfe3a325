package server

import (
	"fmt"
	"time"

	"github.com/wfunc/spyserver/broadcast"
	"github.com/wfunc/spyserver/game"
	"github.com/wfunc/spyserver/logger"
	"github.com/wfunc/spyserver/network"
	"github.com/wfunc/spyserver/session"
)

// errNotInRoom is returned for room actions from an unbound connection.
var errNotInRoom = fmt.Errorf("connection is not in a room: %w", game.ErrPlayerNotFound)

func (s *GameServer) handleMessage(sess *session.Session, data []byte) {
	start := time.Now()
	s.monitor.IncMessagesReceived()
	defer func() {
		s.monitor.ObserveMessageLatency(time.Since(start))
	}()

	msg, err := network.Decode(data)
	if err != nil {
		s.sendError(sess, err)
		return
	}

	switch msg.Type {
	case network.MsgPing:
		sess.MarkAlive()
		s.sendTo(sess, network.PongEvent{Type: network.MsgPong})
	case network.MsgCreateRoom:
		s.handleCreateRoom(sess, msg)
	case network.MsgJoinRoom:
		s.handleJoinRoom(sess, msg)
	case network.MsgLeaveRoom:
		s.depart(sess)
	case network.MsgStartGame:
		s.handleStartGame(sess, msg)
	case network.MsgShowWord:
		s.handleShowWord(sess)
	case network.MsgStartDiscussion:
		s.inRoom(sess, s.engine.StartDiscussion)
	case network.MsgStartVoting:
		s.inRoom(sess, s.engine.StartVoting)
	case network.MsgRestartGame:
		s.inRoom(sess, s.engine.RestartGame)
	case network.MsgVote:
		s.inRoom(sess, func(code, playerID string) (*game.Outcome, error) {
			return s.engine.Vote(code, playerID, msg.VotedPlayerID)
		})
	default:
		logger.Log.Warnf("Unknown message type %q from session %s", msg.Type, sess.GetID())
	}
}

// enter 绑定新玩家并投递结果。已经在房间里的连接先离开原来的房间。
func (s *GameServer) enter(sess *session.Session, op func() (*game.Outcome, error)) {
	s.depart(sess)

	out, err := op()
	if err != nil {
		s.sendError(sess, err)
		return
	}
	if !s.sessionManager.Bind(sess, out.RoomCode, out.PlayerID) {
		// 会话在加入期间已断开
		logger.Log.Infof("Session %s closed while entering room %s", sess.GetID(), out.RoomCode)
		s.deliver(out)
		s.deliver(s.engine.LeaveRoom(out.RoomCode, out.PlayerID))
		return
	}
	logger.Log.Infof("Session %s is player %s in room %s", sess.GetID(), out.PlayerID, out.RoomCode)
	s.deliver(out)
}

func (s *GameServer) handleCreateRoom(sess *session.Session, msg *network.ClientMessage) {
	s.enter(sess, func() (*game.Outcome, error) {
		return s.engine.CreateRoom(msg.PlayerName)
	})
}

func (s *GameServer) handleJoinRoom(sess *session.Session, msg *network.ClientMessage) {
	s.enter(sess, func() (*game.Outcome, error) {
		return s.engine.JoinRoom(msg.RoomCode, msg.PlayerName)
	})
}

// inRoom runs op as the player bound to sess. The ids in the message are
// not trusted.
func (s *GameServer) inRoom(sess *session.Session, op func(code, playerID string) (*game.Outcome, error)) broadcast.Report {
	code, playerID, bound := sess.Binding()
	if !bound {
		s.sendError(sess, errNotInRoom)
		return broadcast.Report{}
	}
	out, err := op(code, playerID)
	if err != nil {
		s.sendError(sess, err)
		return broadcast.Report{}
	}
	return s.deliver(out)
}

func (s *GameServer) handleStartGame(sess *session.Session, msg *network.ClientMessage) {
	var patch game.SettingsPatch
	if msg.Settings != nil {
		patch = game.SettingsPatch{
			SpyCount:              msg.Settings.SpyCount,
			ShowSpyCountToPlayers: msg.Settings.ShowSpyCountToPlayers,
			AllowSpyDiscussion:    msg.Settings.AllowSpyDiscussion,
			SpyHintsEnabled:       msg.Settings.SpyHintsEnabled,
		}
	}
	s.inRoom(sess, func(code, playerID string) (*game.Outcome, error) {
		return s.engine.StartGame(code, playerID, msg.Category, patch)
	})
}

// handleShowWord 只有一个玩家都没收到时才向房主报错
func (s *GameServer) handleShowWord(sess *session.Session) {
	var attempted bool
	report := s.inRoom(sess, func(code, playerID string) (*game.Outcome, error) {
		out, err := s.engine.ShowWord(code, playerID)
		attempted = err == nil
		return out, err
	})
	if !attempted {
		return
	}
	if err := broadcast.RequireDelivery(report); err != nil {
		logger.Log.Warnf("showWord reached nobody: %v", err)
		s.sendError(sess, err)
	}
}
