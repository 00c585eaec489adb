package utils

import (
	"fmt"
	"sync"
	"time"
)

const actionLockDuration = 5 * time.Minute

// ActionLocks keeps two moderators from acting on the same member at once.
// A lock that is never released expires after actionLockDuration.
type ActionLocks struct {
	mu    sync.Mutex
	locks map[string]time.Time
	now   func() time.Time
}

func NewActionLocks() *ActionLocks {
	return &ActionLocks{locks: make(map[string]time.Time), now: time.Now}
}

func lockKey(guildID, userID int64) string {
	return fmt.Sprintf("%d:%d", guildID, userID)
}

// TryLock sets the lock for the member and returns true, or returns false
// if another action holds it.
func (l *ActionLocks) TryLock(guildID, userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := lockKey(guildID, userID)
	if since, ok := l.locks[key]; ok && l.now().Sub(since) < actionLockDuration {
		return false
	}
	l.locks[key] = l.now()
	return true
}

func (l *ActionLocks) Unlock(guildID, userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, lockKey(guildID, userID))
}
