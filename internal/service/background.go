package service

import (
	"sync"
	"time"
)

// BackgroundTasks runs detached work, such as submission saves, and lets shutdown wait for it.
// Its Go method fits AnalysisConfig.Dispatch.
type BackgroundTasks struct {
	wg sync.WaitGroup
}

func (b *BackgroundTasks) Go(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

// Wait blocks until all started tasks return or timeout elapses. It reports whether every task finished.
func (b *BackgroundTasks) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
