package hunt

import (
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestTickerScheduler_StartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := NewTickerScheduler(5 * time.Millisecond)
	var n atomic.Int32
	reached := make(chan struct{})
	s.Start(func() {
		if n.Add(1) == 3 {
			close(reached)
		}
	})
	s.Start(func() { t.Errorf("second Start must be ignored") })

	select {
	case <-reached:
	case <-time.After(5 * time.Second):
		t.Fatalf("scheduler did not tick")
	}
	s.Stop()
	s.Stop()

	after := n.Load()
	time.Sleep(20 * time.Millisecond)
	if n.Load() != after {
		t.Fatalf("ticked after Stop")
	}
}

func TestManualScheduler(t *testing.T) {
	var s ManualScheduler
	count := 0
	s.Advance(1)
	s.Start(func() { count++ })
	s.Advance(3)
	s.Advance(0)
	s.Stop()
	s.Advance(2)
	if count != 4 {
		t.Fatalf("ticks: got %d want 4", count)
	}
}

func TestStateString(t *testing.T) {
	if StateFarmSafariCurrency.String() != "FarmSafariCurrency" || !StateFarmDungeonTokens.Farming() || StateHuntRoute.Farming() {
		t.Fatalf("unexpected state helpers")
	}
}
