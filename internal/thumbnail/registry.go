package thumbnail

import "sync"

// requestMap tracks the URL currently wanted by each identity.
// Every operation is atomic on its own; nothing spans several calls.
type requestMap[T comparable] struct {
	mu       sync.RWMutex
	requests map[T]string
}

func newRequestMap[T comparable]() *requestMap[T] {
	return &requestMap[T]{requests: make(map[T]string)}
}

func (m *requestMap[T]) Get(identity T) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	url, ok := m.requests[identity]
	return url, ok
}

// Put associates url with identity, replacing any previous URL.
func (m *requestMap[T]) Put(identity T, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[identity] = url
}

func (m *requestMap[T]) Remove(identity T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.requests, identity)
}

// CompareAndDelete removes identity only if it is still associated with url.
// It reports whether the entry was removed.
func (m *requestMap[T]) CompareAndDelete(identity T, url string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.requests[identity]
	if !ok || current != url {
		return false
	}
	delete(m.requests, identity)
	return true
}

func (m *requestMap[T]) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.requests)
	m.requests = make(map[T]string)
	return n
}

func (m *requestMap[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}
