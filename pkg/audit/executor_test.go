package audit

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExecutor_RunsQueuedTasks(t *testing.T) {
	e := NewExecutor(2, 4, 10, 50*time.Millisecond)
	e.Start()
	defer e.Stop(time.Second)

	var count int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		e.Submit(func() {
			atomic.AddInt64(&count, 1)
			wg.Done()
		})
	}
	wg.Wait()
	assert.Equal(t, int64(20), atomic.LoadInt64(&count))
}

// TestExecutor_CallerRunsUnderSaturation exercises S8 from SPEC_FULL.md
// §8: with a tiny queue and all workers permanently blocked, a submitted
// task must still execute — on the calling goroutine — rather than block
// forever or be dropped.
func TestExecutor_CallerRunsUnderSaturation(t *testing.T) {
	e := NewExecutor(1, 1, 0, 50*time.Millisecond)
	e.Start()
	defer e.Stop(time.Second)

	block := make(chan struct{})
	started := make(chan struct{})
	e.Submit(func() {
		close(started)
		<-block
	})
	<-started // core worker is now permanently busy; queue capacity is 0

	ranInline := false
	callerGoroutine := make(chan struct{})
	go func() {
		defer close(callerGoroutine)
		e.Submit(func() {
			ranInline = true
		})
	}()

	select {
	case <-callerGoroutine:
	case <-time.After(time.Second):
		t.Fatal("submit under full saturation did not return (expected caller-runs)")
	}
	assert.True(t, ranInline)

	close(block)
}

func TestExecutor_BurstsUnderQueuePressure(t *testing.T) {
	e := NewExecutor(1, 3, 1, 200*time.Millisecond)
	e.Start()
	defer e.Stop(time.Second)

	release := make(chan struct{})
	var running int64
	var maxRunning int64
	var mu sync.Mutex

	task := func() {
		n := atomic.AddInt64(&running, 1)
		mu.Lock()
		if n > maxRunning {
			maxRunning = n
		}
		mu.Unlock()
		<-release
		atomic.AddInt64(&running, -1)
	}

	for i := 0; i < 3; i++ {
		e.Submit(task)
	}
	time.Sleep(100 * time.Millisecond)
	close(release)

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, maxRunning, int64(2))
}
