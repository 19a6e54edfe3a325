package room

import (
	"errors"
	"iter"
	"math/rand/v2"
	"strconv"
	"sync"
)

const (
	codeMin = 100000
	codeMax = 999999

	maxCodeAttempts = 1000
)

// ErrNoRoomCode is returned when no free room code was found.
var ErrNoRoomCode = errors.New("no free room code")

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	rng   *rand.Rand
	mutex sync.RWMutex
}

// NewRoomManager 创建房间管理器，rng 为 nil 时使用随机种子
func NewRoomManager(rng *rand.Rand) *Manager {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Manager{
		rooms: make(map[string]*Room),
		rng:   rng,
	}
}

// Create 分配一个新的六位房间号，并以 host 作为房主创建房间
func (m *Manager) Create(host *Player, settings Settings) (*Room, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	for range maxCodeAttempts {
		code := strconv.Itoa(codeMin + m.rng.IntN(codeMax-codeMin+1))
		if _, exists := m.rooms[code]; exists {
			continue
		}
		room := NewRoom(code, host, settings)
		m.rooms[code] = room
		return room, nil
	}
	return nil, ErrNoRoomCode
}

func (m *Manager) Get(code string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[code]
	return room, exists
}

// Delete 从管理器移除房间，可重复调用
func (m *Manager) Delete(code string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, code)
}

// All iterates over a snapshot of the live rooms.
func (m *Manager) All() iter.Seq[*Room] {
	m.mutex.RLock()
	snapshot := make([]*Room, 0, len(m.rooms))
	for _, room := range m.rooms {
		snapshot = append(snapshot, room)
	}
	m.mutex.RUnlock()

	return func(yield func(*Room) bool) {
		for _, room := range snapshot {
			if !yield(room) {
				return
			}
		}
	}
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}
