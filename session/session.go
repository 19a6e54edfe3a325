// session/session.go
package session

import (
	"sync"
	"time"

	"github.com/wfunc/spyserver/network"
)

// Session 一个客户端连接，最多绑定到一个房间中的一名玩家
type Session struct {
	ID         string
	Conn       network.Connection
	CreatedAt  time.Time
	LastActive time.Time
	roomCode   string
	playerID   string
	alive      bool
	mutex      sync.RWMutex
}

func NewSession(id string, conn network.Connection) *Session {
	now := time.Now()
	return &Session{
		ID:         id,
		Conn:       conn,
		CreatedAt:  now,
		LastActive: now,
		alive:      true,
	}
}

func (s *Session) Send(data []byte) error {
	return s.Conn.Send(data)
}

func (s *Session) GetID() string {
	return s.ID
}

func (s *Session) Close() error {
	return s.Conn.Close()
}

// Binding returns the room and player this session acts as.
func (s *Session) Binding() (roomCode, playerID string, ok bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.roomCode, s.playerID, s.playerID != ""
}

// MarkAlive 收到 pong 或 ping 时调用
func (s *Session) MarkAlive() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.alive = true
	s.LastActive = time.Now()
}

func (s *Session) Alive() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.alive
}

// Session管理器，同时维护 playerID -> session 的索引
type Manager struct {
	sessions map[string]*Session
	players  map[string]*Session
	mutex    sync.RWMutex
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		players:  make(map[string]*Session),
	}
}

func (m *Manager) Add(session *Session) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.sessions[session.ID] = session
}

// Remove 删除会话及其玩家索引，可重复调用；只有第一次返回 removed=true，
// 同时返回删除时会话绑定的房间和玩家
func (m *Manager) Remove(sessionID string) (roomCode, playerID string, removed bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s, exists := m.sessions[sessionID]
	if !exists {
		return "", "", false
	}
	delete(m.sessions, sessionID)
	roomCode, playerID, bound := s.Binding()
	if bound && m.players[playerID] == s {
		delete(m.players, playerID)
	}
	return roomCode, playerID, true
}

// Bind makes the session act as playerID in roomCode. It returns false when
// the session was already removed; the caller then owns the player's departure.
func (m *Manager) Bind(s *Session, roomCode, playerID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.sessions[s.ID] != s {
		return false
	}

	s.mutex.Lock()
	if s.playerID != "" && m.players[s.playerID] == s {
		delete(m.players, s.playerID)
	}
	s.roomCode = roomCode
	s.playerID = playerID
	s.mutex.Unlock()

	m.players[playerID] = s
	return true
}

// Unbind 解除玩家与会话的绑定，玩家不存在时什么也不做
func (m *Manager) Unbind(playerID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s, exists := m.players[playerID]
	if !exists {
		return
	}
	delete(m.players, playerID)

	s.mutex.Lock()
	if s.playerID == playerID {
		s.roomCode = ""
		s.playerID = ""
	}
	s.mutex.Unlock()
}

// Lookup finds the session currently bound to playerID.
func (m *Manager) Lookup(playerID string) (*Session, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	s, exists := m.players[playerID]
	return s, exists
}

// Sessions returns a snapshot of all sessions.
func (m *Manager) Sessions() []*Session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	return result
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// Sweep 返回上一轮没有应答的会话(stale)，其余会话标记为未应答并返回待探测列表(probe)
func (m *Manager) Sweep() (stale, probe []*Session) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, s := range m.sessions {
		s.mutex.Lock()
		if s.alive {
			s.alive = false
			probe = append(probe, s)
		} else {
			stale = append(stale, s)
		}
		s.mutex.Unlock()
	}
	return stale, probe
}
