package locks

import (
	"context"
	"sync"
)

// MemoryLock is process-local; it only excludes runs within one instance.
type MemoryLock struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{held: make(map[string]struct{})}
}

func (l *MemoryLock) TryAcquire(_ context.Context, projectID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[projectID]; ok {
		return false, nil
	}
	l.held[projectID] = struct{}{}
	return true, nil
}

// Release is idempotent.
func (l *MemoryLock) Release(_ context.Context, projectID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, projectID)
	return nil
}

// Held reports whether projectID is currently locked.
func (l *MemoryLock) Held(projectID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[projectID]
	return ok
}
