package miniapp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestLockCounts(t *testing.T) {
	var l RequestLock
	require.False(t, l.Locked())

	l.Acquire()
	l.Acquire()
	require.True(t, l.Locked())
	require.Equal(t, 2, l.Count())

	require.True(t, l.Release())
	require.True(t, l.Release())
	require.False(t, l.Locked())
}

func TestRequestLockNeverNegative(t *testing.T) {
	var l RequestLock
	require.False(t, l.Release())
	require.Equal(t, 0, l.Count())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Acquire()
			l.Release()
			l.Release()
		}()
	}
	wg.Wait()
	require.Equal(t, 0, l.Count())
}
