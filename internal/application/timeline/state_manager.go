package timeline

import "sync"

// StateManager publishes engine views to readers on other goroutines
type StateManager struct {
	mu sync.RWMutex

	view        View
	subscribers map[int]chan struct{}
	nextID      int
}

// NewStateManager creates a new StateManager instance
func NewStateManager() *StateManager {
	return &StateManager{
		subscribers: make(map[int]chan struct{}),
	}
}

// View returns the latest published view
func (sm *StateManager) View() View {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.view
}

// SetView publishes v and wakes every subscriber
func (sm *StateManager) SetView(v View) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.view = v
	for _, ch := range sm.subscribers {
		// Coalesce: a pending wake-up already covers this update
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Subscribe returns a channel signalled after each published view, and a
// function to unsubscribe
func (sm *StateManager) Subscribe() (<-chan struct{}, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	id := sm.nextID
	sm.nextID++
	ch := make(chan struct{}, 1)
	sm.subscribers[id] = ch

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		delete(sm.subscribers, id)
	}
}
