package cache

import "time"

// MockCache is an in-memory Cache for tests. Unlike the ristretto-backed
// implementation it is deterministic: no admission policy, no async
// buffers, entries expire exactly at their TTL.
type MockCache struct {
	data    map[string][]byte
	expires map[string]time.Time
}

// NewMockCache creates a new mock cache for testing.
func NewMockCache() *MockCache {
	return &MockCache{
		data:    make(map[string][]byte),
		expires: make(map[string]time.Time),
	}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	val, found := m.data[key]
	if !found {
		return nil, false
	}
	if exp, ok := m.expires[key]; ok && time.Now().After(exp) {
		m.Delete(key)
		return nil, false
	}
	return val, true
}

func (m *MockCache) Set(key string, value []byte, ttl time.Duration) {
	m.data[key] = value
	if ttl > 0 {
		m.expires[key] = time.Now().Add(ttl)
	} else {
		delete(m.expires, key)
	}
}

func (m *MockCache) Delete(key string) {
	delete(m.data, key)
	delete(m.expires, key)
}

func (m *MockCache) Clear() {
	m.data = make(map[string][]byte)
	m.expires = make(map[string]time.Time)
}

func (m *MockCache) Stats() Stats {
	return Stats{
		Items: int64(len(m.data)),
	}
}
