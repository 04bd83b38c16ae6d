package snapshot

import "sync"

// idMutexes hands out one mutex per resource ID.
type idMutexes struct {
	mapLock sync.RWMutex
	mutexes map[string]*sync.Mutex
}

func newIDMutexes() *idMutexes {
	return &idMutexes{mutexes: make(map[string]*sync.Mutex)}
}

func (m *idMutexes) get(id string) *sync.Mutex {
	m.mapLock.RLock()
	mutex, exists := m.mutexes[id]
	m.mapLock.RUnlock()
	if exists {
		return mutex
	}

	m.mapLock.Lock()
	defer m.mapLock.Unlock()

	// Double-check after acquiring write lock
	if mutex, exists := m.mutexes[id]; exists {
		return mutex
	}
	mutex = &sync.Mutex{}
	m.mutexes[id] = mutex
	return mutex
}
