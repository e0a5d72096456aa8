package cleanup

import (
	"context"
	"sync"
	"testing"
	"time"
)

type sweeper struct {
	mu       sync.Mutex
	calls    int
	finished time.Duration
	idle     time.Duration
	swept    chan struct{}
}

func (s *sweeper) CleanupOldSessions(finishedTTL, idleTTL time.Duration) int {
	s.mu.Lock()
	s.calls++
	s.finished, s.idle = finishedTTL, idleTTL
	s.mu.Unlock()
	if s.swept != nil {
		s.swept <- struct{}{}
	}
	return 2
}

func TestRunOncePassesTTLs(t *testing.T) {
	s := &sweeper{}
	w := NewWorker(s, time.Hour, 24*time.Hour)

	if got := w.RunOnce(); got != 2 {
		t.Fatalf("RunOnce = %d, want 2", got)
	}
	if s.finished != time.Hour || s.idle != 24*time.Hour {
		t.Errorf("ttls = %v, %v", s.finished, s.idle)
	}
}

func TestStartSweepsPeriodicallyUntilCancelled(t *testing.T) {
	s := &sweeper{swept: make(chan struct{}, 16)}
	w := NewWorker(s, time.Minute, time.Minute)
	w.Interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	for i := 0; i < 3; i++ {
		select {
		case <-s.swept:
		case <-time.After(2 * time.Second):
			t.Fatalf("sweep %d never happened", i)
		}
	}
	cancel()
}
