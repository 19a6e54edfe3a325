package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/spyserver/broadcast"
	"github.com/wfunc/spyserver/config"
	"github.com/wfunc/spyserver/game"
	"github.com/wfunc/spyserver/lexicon"
	"github.com/wfunc/spyserver/logger"
	"github.com/wfunc/spyserver/monitor"
	"github.com/wfunc/spyserver/network"
	"github.com/wfunc/spyserver/room"
	spyrpc "github.com/wfunc/spyserver/rpc"
	"github.com/wfunc/spyserver/services"
	"github.com/wfunc/spyserver/session"
	"github.com/wfunc/spyserver/timer"
)

type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	engine         *game.Engine
	broadcaster    broadcast.Broadcaster
	records        *services.RecordService
	monitor        *monitor.Monitor
	timers         *timer.TimerManager
	rpcServer      *spyrpc.Server
	httpServer     *http.Server
	heartbeat      time.Duration
	sendBuffer     int
	writeTimeout   time.Duration
	shutdownChan   chan struct{}
	shutdownOnce   sync.Once
}

func NewGameServer(cfg *config.Config, records *services.RecordService, mon *monitor.Monitor) (*GameServer, error) {
	s := &GameServer{
		addr:           cfg.Server.HTTPAddress,
		roomManager:    room.NewRoomManager(nil),
		sessionManager: session.NewManager(),
		records:        records,
		monitor:        mon,
		heartbeat:      cfg.Game.HeartbeatInterval,
		sendBuffer:     cfg.Game.SendBuffer,
		writeTimeout:   cfg.Server.WriteTimeout,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.engine = game.NewEngine(s.roomManager, lexicon.New(nil), nil, game.Options{
		MinPlayers: cfg.Game.MinPlayers,
		Defaults: room.Settings{
			SpyCount:              cfg.Game.DefaultSpyCount,
			ShowSpyCountToPlayers: cfg.Game.ShowSpyCount,
			AllowSpyDiscussion:    cfg.Game.AllowSpyDiscussion,
			SpyHintsEnabled:       cfg.Game.SpyHints,
			MaxPlayers:            cfg.Game.MaxPlayers,
		},
	})

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)

	// 初始化RPC服务器
	if cfg.Server.RPCAddress != "" {
		rpcServer, err := spyrpc.NewServer(cfg.Server.RPCAddress)
		if err != nil {
			return nil, err
		}
		if err := rpcServer.Register(spyrpc.NewAdminService(s.engine, s.sessionManager, records, mon)); err != nil {
			rpcServer.Stop()
			return nil, err
		}
		s.rpcServer = rpcServer
	}

	return s, nil
}

// Handler serves the websocket endpoint and the liveness probe.
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return mux
}

// Start 启动 RPC、心跳检测和 HTTP 服务，阻塞直到服务关闭
func (s *GameServer) Start() error {
	if s.rpcServer != nil {
		go s.rpcServer.Start()
	}
	s.StartHeartbeat()

	s.httpServer = &http.Server{Addr: s.addr, Handler: s.Handler()}
	logger.Log.Infof("Game server listening on %s", s.addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StartHeartbeat schedules the liveness sweep.
func (s *GameServer) StartHeartbeat() {
	if s.timers != nil || s.heartbeat <= 0 {
		return
	}
	s.timers = timer.NewTimerManager(0)
	s.timers.Every("liveness-sweep", s.heartbeat, s.sweep)
}

func (s *GameServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		if s.timers != nil {
			s.timers.Stop()
		}
		if s.rpcServer != nil {
			s.rpcServer.Stop()
		}
		if s.httpServer != nil {
			err = s.httpServer.Shutdown(ctx)
		}
		notice := network.NewError(network.CodeServerShutdown, "server is shutting down")
		for r := range s.roomManager.All() {
			if _, err := s.broadcaster.BroadcastToRoom(r.Code, notice, ""); err != nil {
				logger.Log.Debugf("Shutdown notice for room %s: %v", r.Code, err)
			}
		}
		// 被劫持的 websocket 连接不受 http.Server 管理，需要单独关闭
		for _, sess := range s.sessionManager.Sessions() {
			sess.Close()
		}
	})
	return err
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn, s.sendBuffer, s.writeTimeout)
	sess := session.NewSession(uuid.NewString(), wsConn)
	wsConn.OnPong(sess.MarkAlive)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlineConnections()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.disconnect(sess)
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
		}
		data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Debugf("Read error on session %s: %v", sess.GetID(), err)
			}
			return
		}
		s.handleMessage(sess, data)
	}
}

// disconnect 关闭连接并让玩家离开房间，可以被读循环和心跳检测同时调用
func (s *GameServer) disconnect(sess *session.Session) {
	code, playerID, removed := s.sessionManager.Remove(sess.GetID())
	if !removed {
		return
	}
	sess.Close()
	s.monitor.DecOnlineConnections()
	if playerID != "" {
		s.leave(code, playerID)
	}
}

// depart is the single path for leave requests and closed connections.
func (s *GameServer) depart(sess *session.Session) {
	code, playerID, bound := sess.Binding()
	if !bound {
		return
	}
	s.leave(code, playerID)
}

func (s *GameServer) leave(code, playerID string) {
	s.sessionManager.Unbind(playerID)
	s.deliver(s.engine.LeaveRoom(code, playerID))
}

// sweep 关闭上一轮没有应答的连接，并向其余连接发送心跳探测
func (s *GameServer) sweep() {
	stale, probe := s.sessionManager.Sweep()
	for _, sess := range stale {
		logger.Log.Warnf("Session %s missed the liveness probe, closing", sess.GetID())
		s.disconnect(sess)
	}
	for _, sess := range probe {
		if err := sess.Conn.Ping(); err != nil {
			logger.Log.Debugf("Ping session %s failed: %v", sess.GetID(), err)
		}
	}
	s.monitor.SetActiveRooms(s.roomManager.Count())
}

// deliver 在房间锁释放之后投递事件，并处理淘汰、归档和指标
func (s *GameServer) deliver(out *game.Outcome) broadcast.Report {
	if out == nil {
		return broadcast.Report{}
	}
	report := s.broadcaster.Dispatch(out.Outbound)
	s.monitor.AddDeliveryFailures(report.Failed)

	for _, id := range out.Removed {
		s.sessionManager.Unbind(id)
	}
	if out.Finished != nil {
		s.monitor.IncGamesFinished(out.Finished.Results.Winner)
		if s.records != nil {
			s.records.Archive(out.Finished)
		}
	}
	s.monitor.SetActiveRooms(s.roomManager.Count())
	return report
}

func (s *GameServer) sendTo(sess *session.Session, event any) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorf("Failed to encode %T: %v", event, err)
		return
	}
	if err := sess.Send(data); err != nil {
		logger.Log.Debugf("Send to session %s failed: %v", sess.GetID(), err)
	}
}

func (s *GameServer) sendError(sess *session.Session, err error) {
	code := errorCode(err)
	message := err.Error()
	if code == network.CodeInternalError {
		logger.Log.Errorf("Session %s: %v", sess.GetID(), err)
		message = "internal error"
	}
	s.sendTo(sess, network.NewError(code, message))
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return network.CodeRoomNotFound
	case errors.Is(err, game.ErrInvalidPhase):
		return network.CodeInvalidPhase
	case errors.Is(err, game.ErrNotHost):
		return network.CodeNotHost
	case errors.Is(err, game.ErrNotEnoughPlayers):
		return network.CodeNotEnoughPlayers
	case errors.Is(err, game.ErrNameTaken):
		return network.CodeNameTaken
	case errors.Is(err, game.ErrRoomFull):
		return network.CodeRoomFull
	case errors.Is(err, game.ErrVotingClosed):
		return network.CodeVotingClosed
	case errors.Is(err, game.ErrPlayerNotFound):
		return network.CodePlayerNotFound
	case errors.Is(err, network.ErrMalformedMessage):
		return network.CodeMalformedMessage
	case errors.Is(err, broadcast.ErrDeliveryFailure):
		return network.CodeDeliveryFailure
	default:
		return network.CodeInternalError
	}
}
