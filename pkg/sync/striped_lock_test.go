package sync

import (
	"fmt"
	base "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripedLock_HappyPath(t *testing.T) {
	workerCount := 64
	operationCount := 1000

	l := NewStripedLock(4)

	var workerWg base.WaitGroup
	startChan := make(chan struct{})
	data := make([]int, workerCount)

	for i := 0; i < workerCount; i++ {
		workerWg.Add(1)

		go func(workerID int) {
			defer workerWg.Done()

			var opWg base.WaitGroup
			key := []byte(fmt.Sprintf("worker%d", workerID))
			for j := 0; j < operationCount; j++ {
				opWg.Add(1)

				go func() {
					defer opWg.Done()

					<-startChan

					s := l.LockKeys([][]byte{key}, nil)
					data[workerID]++
					s.Unlock()
				}()
			}
			opWg.Wait()
		}(i)
	}

	close(startChan)
	workerWg.Wait()

	for _, val := range data {
		assert.EqualValues(t, operationCount, val)
	}
}

func TestStripedLock_LockKeys(t *testing.T) {
	l := NewStripedLock(16)

	a := []byte("account-a")
	b := []byte("account-b")

	// Shared holders don't exclude each other
	s1 := l.LockKeys(nil, [][]byte{a})
	s2, ok := l.TryLockKeys(nil, [][]byte{a})
	require.True(t, ok)

	// But they do exclude writers
	_, ok = l.TryLockKeys([][]byte{a}, nil)
	assert.False(t, ok)

	s1.Unlock()
	s2.Unlock()

	s3, ok := l.TryLockKeys([][]byte{a, b}, [][]byte{a})
	require.True(t, ok)

	_, ok = l.TryLockKeys(nil, [][]byte{b})
	assert.False(t, ok)

	s3.Unlock()

	s4, ok := l.TryLockKeys(nil, [][]byte{b})
	require.True(t, ok)
	s4.Unlock()
}

func TestStripedLock_NoDeadlock(t *testing.T) {
	l := NewStripedLock(8)

	keys := make([][]byte, 16)
	for i := range keys {
		keys[i] = []byte(fmt.Sprintf("key%d", i))
	}

	var wg base.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()

			// Each worker requests the keys in a different order
			ordered := make([][]byte, len(keys))
			for j := range keys {
				ordered[j] = keys[(j+offset)%len(keys)]
			}

			for j := 0; j < 100; j++ {
				s := l.LockKeys(ordered[:3], ordered[3:6])
				s.Unlock()
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("deadlock acquiring striped locks")
	}
}
