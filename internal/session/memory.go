package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore keeps flags in process memory. Expired entries are dropped on read.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]map[string]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithClock(time.Now)
}

func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]map[string]memoryEntry),
		now:      now,
	}
}

func (m *MemoryStore) Get(_ context.Context, session, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(session, key)
	return e.value, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, session, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(session, key, value, ttl)
	return nil
}

func (m *MemoryStore) CompareAndSet(_ context.Context, session, key, old, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(session, key)
	if ok != (old != "") || e.value != old {
		return false, nil
	}
	m.put(session, key, value, ttl)
	return true, nil
}

// lookup returns a live entry and drops it if it has expired. Callers hold mu.
func (m *MemoryStore) lookup(session, key string) (memoryEntry, bool) {
	flags, ok := m.sessions[session]
	if !ok {
		return memoryEntry{}, false
	}
	e, ok := flags[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(flags, key)
		if len(flags) == 0 {
			delete(m.sessions, session)
		}
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryStore) put(session, key, value string, ttl time.Duration) {
	flags, ok := m.sessions[session]
	if !ok {
		flags = make(map[string]memoryEntry)
		m.sessions[session] = flags
	}
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	flags[key] = e
}

func (m *MemoryStore) Delete(_ context.Context, session string, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(keys) == 0 {
		delete(m.sessions, session)
		return nil
	}
	flags, ok := m.sessions[session]
	if !ok {
		return nil
	}
	for _, k := range keys {
		delete(flags, k)
	}
	if len(flags) == 0 {
		delete(m.sessions, session)
	}
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
