package store

import (
	"sort"
	"sync"

	"caro/internal/room"
)

// MemoryStore is the process-wide room table. The store lock is never
// held while a room lock is taken.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*room.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: map[string]*room.Room{},
	}
}

func (m *MemoryStore) Add(r *room.Room) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID()] = r
}

func (m *MemoryStore) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
}

func (m *MemoryStore) Get(id string) (*room.Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// List returns the rooms oldest first.
func (m *MemoryStore) List() []*room.Room {
	m.mu.RLock()
	out := make([]*room.Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		out = append(out, r)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].CreatedAt().Before(out[j].CreatedAt())
		}
		return out[i].ID() < out[j].ID()
	})
	return out
}

// FindByParticipant returns the first open room where username is host or
// guest.
func (m *MemoryStore) FindByParticipant(username string) (*room.Room, bool) {
	for _, r := range m.List() {
		if r.HasParticipant(username) {
			return r, true
		}
	}
	return nil, false
}

func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}
