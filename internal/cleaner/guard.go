package cleaner

import (
	"context"
	"time"

	"github.com/Latias94/purger/pkg/models"
)

// guard carries the cancellation token and per-project deadline checked at
// every safe point of a clean
type guard struct {
	ctx     context.Context
	start   time.Time
	timeout time.Duration // 0 = none
}

func newGuard(ctx context.Context, timeout time.Duration) guard {
	return guard{ctx: ctx, start: time.Now(), timeout: timeout}
}

// check returns ErrCancelled or a *TimeoutError once either applies
func (g guard) check() error {
	if g.ctx.Err() != nil {
		return ErrCancelled
	}
	if g.timedOut() {
		return &TimeoutError{Timeout: g.timeout}
	}
	return nil
}

func (g guard) timedOut() bool {
	return g.timeout > 0 && time.Since(g.start) > g.timeout
}

// cancellable reports whether the context can ever be cancelled
func (g guard) cancellable() bool {
	return g.ctx.Done() != nil
}

func (g guard) elapsed() time.Duration {
	return time.Since(g.start)
}

// emitter sends progress events for one project; a nil sink is a no-op
type emitter struct {
	project string
	sink    models.ProgressFunc
}

func (em emitter) send(ev models.CleanProgress) {
	if em.sink == nil {
		return
	}
	ev.ProjectName = em.project
	em.sink(ev)
}

func (em emitter) phase(phase models.CleanPhase, currentFile string) {
	em.send(models.CleanProgress{Phase: phase, CurrentFile: currentFile})
}

// throttle limits Cleaning events to one per interval
type throttle struct {
	interval time.Duration
	last     time.Time
}

func (t *throttle) ready() bool {
	now := time.Now()
	if now.Sub(t.last) < t.interval {
		return false
	}
	t.last = now
	return true
}
