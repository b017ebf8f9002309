package server

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedMutexSerializesPerKey(t *testing.T) {
	var k keyedMutex
	var wg sync.WaitGroup
	// Each counter is only guarded by its own key's lock.
	counts := map[string]*int{"a": new(int), "b": new(int)}

	for range 50 {
		for _, key := range []string{"a", "b"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := k.Lock(key)
				defer unlock()
				*counts[key]++
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, 50, *counts["a"])
	assert.Equal(t, 50, *counts["b"])
	assert.Empty(t, k.locks)
}
