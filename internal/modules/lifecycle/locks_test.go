package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedMutexAcquireRelease(t *testing.T) {
	km := NewKeyedMutex()

	release, err := km.Acquire(context.Background(), "MG-1", 100*time.Millisecond)
	require.NoError(t, err)
	release()

	// reacquire after release
	release, err = km.Acquire(context.Background(), "MG-1", 100*time.Millisecond)
	require.NoError(t, err)
	release()
}

func TestKeyedMutexBusyTimeout(t *testing.T) {
	km := NewKeyedMutex()

	release, err := km.Acquire(context.Background(), "MG-1", 100*time.Millisecond)
	require.NoError(t, err)
	defer release()

	start := time.Now()
	_, err = km.Acquire(context.Background(), "MG-1", 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrBusy)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestKeyedMutexIndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	r1, err := km.Acquire(context.Background(), "MG-1", 50*time.Millisecond)
	require.NoError(t, err)
	defer r1()

	r2, err := km.Acquire(context.Background(), "MG-2", 50*time.Millisecond)
	require.NoError(t, err)
	defer r2()
}

func TestKeyedMutexContextCancel(t *testing.T) {
	km := NewKeyedMutex()

	release, err := km.Acquire(context.Background(), "MG-1", time.Second)
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = km.Acquire(ctx, "MG-1", 10*time.Second)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyedMutexSerializes(t *testing.T) {
	km := NewKeyedMutex()

	var (
		mu      sync.Mutex
		holders int
		max     int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := km.Acquire(context.Background(), "MG-1", 5*time.Second)
			if err != nil {
				t.Error(err)
				return
			}
			mu.Lock()
			holders++
			if holders > max {
				max = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, max, "more than one goroutine held the same key")
}
