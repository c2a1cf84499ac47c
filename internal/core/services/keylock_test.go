package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesPerKey(t *testing.T) {
	locks := newKeyLock()

	// One counter per key, each guarded only by its key lock. The race
	// detector catches any unserialized access.
	var countA, countB int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			locks.Lock("aaa")
			defer locks.Unlock("aaa")
			countA++
		}()
		go func() {
			defer wg.Done()
			locks.Lock("bbb")
			defer locks.Unlock("bbb")
			countB++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, countA)
	assert.Equal(t, 50, countB)
}

func TestKeyLock_ReleasesEntries(t *testing.T) {
	locks := newKeyLock()

	locks.Lock("aaa")
	locks.Unlock("aaa")

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "released keys must not accumulate")
}
