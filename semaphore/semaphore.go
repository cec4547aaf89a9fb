// Package semaphore provides a counting semaphore that doesn't trip up the
// race detector the way sync.WaitGroup can when goroutines call Add
// dynamically instead of all up front. CrawlFrontier.Ingest uses one to wait
// out its per-response fan-out goroutines.
package semaphore

import (
	"sync"
)

// Semaphore is a sync.Cond-backed counting semaphore: Add(n) raises the
// count, Done lowers it by one, and Wait blocks until the count reaches
// zero or below.
type Semaphore struct {
	cond  *sync.Cond
	lock  sync.Mutex
	count int
}

func New() *Semaphore {
	s := &Semaphore{}
	s.cond = sync.NewCond(&s.lock)
	return s
}

func (sm *Semaphore) Reset() {
	sm.count = 0
	sm.cond.Broadcast()
}

func (sm *Semaphore) Add(i int) {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	sm.count += i
	if sm.count <= 0 {
		sm.cond.Broadcast()
	}
}

func (sm *Semaphore) Done() {
	sm.Add(-1)
}

func (sm *Semaphore) Wait() {
	sm.lock.Lock()
	defer sm.lock.Unlock()

	for sm.count > 0 {
		sm.cond.Wait()
	}
}
