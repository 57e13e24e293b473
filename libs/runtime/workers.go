package runtime

import (
	"sync"
	"time"
)

// Workers tracks background goroutines that must finish before shared
// resources such as the db pool are closed.
type Workers struct {
	wg sync.WaitGroup
}

func (w *Workers) Go(fn func()) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		fn()
	}()
}

// Wait blocks until every worker has returned or timeout elapses. It reports
// false on timeout.
func (w *Workers) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
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
