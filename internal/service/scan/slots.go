package scan

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/heartmarshall/coral-backend/internal/domain"
)

// errSlotsPinned is returned when every connection slot is held by a probe
// that ignored its deadline and is still running.
var errSlotsPinned = errors.New("all connection slots held by unresponsive probes")

// slots bounds in-flight probes. A slot is released only when the probe
// holding it returns, even if the orchestrator stopped waiting for it, so the
// number of running Probe calls never exceeds size.
type slots struct {
	sem  *semaphore.Weighted
	size int64
	// wait bounds one acquisition attempt before pinned slots are re-examined.
	wait time.Duration

	pinned atomic.Int64
}

func newSlots(size int, wait time.Duration) *slots {
	return &slots{sem: semaphore.NewWeighted(int64(size)), size: int64(size), wait: wait}
}

// acquire blocks until a slot is free. It gives up with errSlotsPinned when
// the wait expires while every slot belongs to an abandoned probe.
func (s *slots) acquire(ctx context.Context) error {
	for {
		wctx, cancel := context.WithTimeout(ctx, s.wait)
		err := s.sem.Acquire(wctx, 1)
		cancel()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.pinned.Load() >= s.size {
			return errSlotsPinned
		}
	}
}

func (s *slots) release() { s.sem.Release(1) }

// probeRun is one Probe call running on an acquired slot.
type probeRun struct {
	result chan domain.ProbeResult

	mu        sync.Mutex
	finished  bool
	abandoned bool
}

// start runs fn on a slot the caller already holds. The slot is released
// when fn returns.
func (s *slots) start(fn func() domain.ProbeResult) *probeRun {
	run := &probeRun{result: make(chan domain.ProbeResult, 1)}
	go func() {
		r := fn()
		run.mu.Lock()
		run.finished = true
		if run.abandoned {
			s.pinned.Add(-1)
		}
		run.mu.Unlock()
		s.release()
		run.result <- r
	}()
	return run
}

// abandon marks the run as no longer awaited. Its slot stays pinned until fn
// returns.
func (s *slots) abandon(run *probeRun) {
	run.mu.Lock()
	defer run.mu.Unlock()
	if !run.finished && !run.abandoned {
		run.abandoned = true
		s.pinned.Add(1)
	}
}
