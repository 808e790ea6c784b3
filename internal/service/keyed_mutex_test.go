package service

import (
	"sync/atomic"
	"testing"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
)

func TestKeyedMutex(t *testing.T) {
	k := newKeyedMutex()

	var (
		inside  atomic.Int32
		overlap atomic.Bool
		wg      conc.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Go(func() {
			unlock := k.Lock("inv_1")
			defer unlock()
			if inside.Add(1) > 1 {
				overlap.Store(true)
			}
			inside.Add(-1)
		})
	}
	wg.Wait()

	assert.False(t, overlap.Load())
	assert.Empty(t, k.locks, "idle keys are released")
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	k := newKeyedMutex()
	unlockA := k.Lock("a")
	// must not block while "a" is held
	unlockB := k.Lock("b")
	unlockB()
	unlockA()
	assert.Empty(t, k.locks)
}
