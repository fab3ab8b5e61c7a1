package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_StartsAtZero(t *testing.T) {
	assert.Equal(t, int64(0), NewSequence().Current())
}

func TestSequence_NextIncrementsMonotonically(t *testing.T) {
	seq := NewSequence()

	assert.Equal(t, int64(1), seq.Next())
	assert.Equal(t, int64(1), seq.Current())
	assert.Equal(t, int64(2), seq.Next())
	assert.Equal(t, int64(3), seq.Next())
	assert.Equal(t, int64(3), seq.Current())
}

func TestSequence_Reset(t *testing.T) {
	seq := NewSequence()
	seq.Next()
	seq.Next()

	seq.Reset()
	assert.Equal(t, int64(0), seq.Current())
	assert.Equal(t, int64(1), seq.Next())
}

func TestSequence_ThreadSafe(t *testing.T) {
	seq := NewSequence()
	const goroutines = 50
	const calls = 100

	seen := make(chan int64, goroutines*calls)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				seen <- seq.Next()
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for n := range seen {
		require.False(t, unique[n], "duplicate value %d", n)
		unique[n] = true
	}
	assert.Len(t, unique, goroutines*calls)
	assert.Equal(t, int64(goroutines*calls), seq.Current())
}
