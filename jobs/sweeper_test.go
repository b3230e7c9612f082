package jobs

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/tienchung1704/real-dinhanstore/config"
	logx "github.com/tienchung1704/real-dinhanstore/logger"
)

func TestMain(m *testing.M) {
	logx.Init(logx.LoggerOpts{Environment: config.Testing})
	os.Exit(m.Run())
}

type countingExpirer struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
}

func (e *countingExpirer) ExpirePending(_ context.Context, cutoff time.Time) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cutoffs = append(e.cutoffs, cutoff)
	return 1, e.err
}

func (e *countingExpirer) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.cutoffs)
}

func TestSweepPendingOrdersRunsUntilCancelled(t *testing.T) {
	exp := &countingExpirer{err: errors.New("db down")}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	start := time.Now()
	go func() {
		SweepPendingOrders(ctx, exp, time.Hour, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for exp.calls() < 3 {
		select {
		case <-deadline:
			t.Fatalf("only %d sweeps", exp.calls())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}

	exp.mu.Lock()
	first := exp.cutoffs[0]
	exp.mu.Unlock()
	if d := start.Sub(first); d < time.Hour-time.Second || d > time.Hour+time.Second {
		t.Fatalf("cutoff %v is not an hour before start", first)
	}
}
