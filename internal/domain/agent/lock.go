package agent

import (
	"context"
	"fmt"
	"sync"
)

// LockStore serialises message handling per conversation. The keyed backend
// variant coordinates across processes; the in-process variant is the
// default when no lock-store configuration is supplied.
type LockStore interface {
	// WithLock runs fn while holding the lock for the given bot and
	// conversation.
	WithLock(ctx context.Context, bot, conversationID string, fn func() error) error
}

// LockKey builds the backend key for a bot's conversation lock.
func LockKey(bot, conversationID string) string {
	return fmt.Sprintf("%s:lock:%s", bot, conversationID)
}

// InProcessLockStore keeps one mutex per conversation in process memory.
type InProcessLockStore struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewInProcessLockStore creates an in-process lock store.
func NewInProcessLockStore() *InProcessLockStore {
	return &InProcessLockStore{locks: make(map[string]*sync.Mutex)}
}

func (s *InProcessLockStore) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lock, ok := s.locks[key]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	s.locks[key] = lock
	return lock
}

// WithLock implements LockStore.
func (s *InProcessLockStore) WithLock(_ context.Context, bot, conversationID string, fn func() error) error {
	lock := s.lockFor(LockKey(bot, conversationID))
	lock.Lock()
	defer lock.Unlock()
	return fn()
}
