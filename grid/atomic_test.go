package grid

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAtomicFloat64AddLoadStore(t *testing.T) {
	var a AtomicFloat64
	require.Equal(t, 0.0, a.Load())

	a.Store(2.5)
	require.Equal(t, 2.5, a.Load())

	a.Add(1.5)
	require.Equal(t, 4.0, a.Load())
}

func TestAtomicFloat64ConcurrentAdd(t *testing.T) {
	var a AtomicFloat64
	var wg sync.WaitGroup
	const goroutines, perGoroutine = 50, 200

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perGoroutine; i++ {
				a.Add(1)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, float64(goroutines*perGoroutine), a.Load())
}
