package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestActionLocks(t *testing.T) {
	locks := NewActionLocks()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	locks.now = func() time.Time { return now }

	assert.True(t, locks.TryLock(1, 2))
	assert.False(t, locks.TryLock(1, 2))
	assert.True(t, locks.TryLock(1, 3))
	assert.True(t, locks.TryLock(9, 2))

	locks.Unlock(1, 2)
	assert.True(t, locks.TryLock(1, 2))

	now = now.Add(actionLockDuration)
	assert.True(t, locks.TryLock(1, 2), "stale lock expires")
}
