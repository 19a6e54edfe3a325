package persistence

import (
	"context"
	"sync"

	"github.com/wfunc/spyserver/models"
)

// Memory keeps the most recent records in a fixed-size ring.
type Memory struct {
	records []*models.GameRecord
	next    int
	full    bool
	nextID  uint
	closed  bool
	mutex   sync.RWMutex
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{
		records: make([]*models.GameRecord, capacity),
		nextID:  1,
	}
}

func (m *Memory) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return ErrClosed
	}
	stored := *record
	stored.ID = m.nextID
	m.nextID++
	record.ID = stored.ID

	m.records[m.next] = &stored
	m.next = (m.next + 1) % len(m.records)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *Memory) RecentGameRecords(ctx context.Context, limit int) ([]*models.GameRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	size := m.next
	if m.full {
		size = len(m.records)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	result := make([]*models.GameRecord, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (m.next - i + len(m.records)) % len(m.records)
		r := *m.records[idx]
		result = append(result, &r)
	}
	return result, nil
}

func (m *Memory) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	return nil
}
