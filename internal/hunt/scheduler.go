package hunt

import (
	"sync"
	"time"
)

const DefaultTickInterval = 500 * time.Millisecond

// Scheduler invokes fn periodically between Start and Stop. Stop returns
// only after any in-flight call has finished.
type Scheduler interface {
	Start(fn func())
	Stop()
}

// TickerScheduler calls fn from one goroutine on a fixed interval.
type TickerScheduler struct {
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	return &TickerScheduler{interval: interval}
}

func (s *TickerScheduler) Start(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	stop, done := make(chan struct{}), make(chan struct{})
	s.stop, s.done = stop, done

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// ManualScheduler only ticks when Advance is called.
type ManualScheduler struct {
	mu sync.Mutex
	fn func()
}

func (s *ManualScheduler) Start(fn func()) {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
}

func (s *ManualScheduler) Stop() {
	s.mu.Lock()
	s.fn = nil
	s.mu.Unlock()
}

func (s *ManualScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fn != nil
}

// Advance runs n ticks, or one when n < 1. It is a no-op while stopped.
func (s *ManualScheduler) Advance(n int) {
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		s.mu.Lock()
		fn := s.fn
		s.mu.Unlock()
		if fn == nil {
			return
		}
		fn()
	}
}
