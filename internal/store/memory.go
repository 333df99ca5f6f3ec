package store

import (
	"context"
	"sync"
)

type memoryState struct {
	mu      sync.Mutex
	entries []Entry
	count   int
	seq     int64
}

// Memory keeps all state in process memory. It is the default backend and
// loses everything on restart; use sqlite or redis for real deployments.
// The map mutex is held only to look up a user's state; mutations take that
// user's own lock, so users never wait on each other's turns.
type Memory struct {
	mu     sync.RWMutex
	window int
	users  map[int64]*memoryState
}

func NewMemory(window int) *Memory {
	return &Memory{window: window, users: make(map[int64]*memoryState)}
}

func (m *Memory) LoadHistory(_ context.Context, userID int64) ([]Entry, error) {
	st := m.lookup(userID)
	if st == nil {
		return nil, nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]Entry, len(st.entries))
	copy(out, st.entries)
	return out, nil
}

func (m *Memory) AppendHistory(_ context.Context, userID int64, entries ...Entry) error {
	st := m.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, e := range entries {
		st.seq++
		e.Seq = st.seq
		st.entries = append(st.entries, e)
	}
	if len(st.entries) > m.window {
		st.entries = append(st.entries[:0:0], st.entries[len(st.entries)-m.window:]...)
	}
	return nil
}

func (m *Memory) UsageCount(_ context.Context, userID int64) (int, error) {
	st := m.lookup(userID)
	if st == nil {
		return 0, nil
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.count, nil
}

func (m *Memory) IncrementUsage(_ context.Context, userID int64, limit int) (int, bool, error) {
	st := m.state(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.count >= limit {
		return st.count, false, nil
	}
	st.count++
	return st.count, true, nil
}

func (m *Memory) Users(_ context.Context) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int64, 0, len(m.users))
	for id, st := range m.users {
		st.mu.Lock()
		charged := st.count > 0
		st.mu.Unlock()
		if charged {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) lookup(userID int64) *memoryState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID]
}

func (m *Memory) state(userID int64) *memoryState {
	m.mu.RLock()
	st, ok := m.users[userID]
	m.mu.RUnlock()
	if ok {
		return st
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.users[userID]; ok {
		return st
	}
	st = &memoryState{}
	m.users[userID] = st
	return st
}
