package filehub

import (
	"sync"
	"time"
)

// DefaultQuietPeriod is how long a filter selection must stay unchanged
// before it is propagated into the active query key.
const DefaultQuietPeriod = 500 * time.Millisecond

// Debouncer coalesces rapid filter edits: each Push cancels any pending
// emission and restarts the quiet-period timer, so only the latest snapshot
// in a burst is ever emitted. At most one timer is pending per Debouncer.
type Debouncer struct {
	quiet time.Duration

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	stopped bool

	out chan Filters
}

// NewDebouncer returns a Debouncer with the given quiet period; zero or
// negative means DefaultQuietPeriod.
func NewDebouncer(quiet time.Duration) *Debouncer {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &Debouncer{
		quiet: quiet,
		out:   make(chan Filters, 1),
	}
}

// Push schedules f for emission after the quiet period. A snapshot pushed
// while a timer is pending supersedes the pending one.
func (d *Debouncer) Push(f Filters) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() {
		d.emit(gen, f)
	})
}

func (d *Debouncer) emit(gen uint64, f Filters) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		// Superseded or torn down while the timer was firing.
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()

	// Single-slot delivery: an unconsumed older emission is replaced.
	select {
	case <-d.out:
	default:
	}
	d.out <- f
}

// C delivers debounced snapshots. The channel holds at most one value; an
// unread emission is replaced by the next one.
func (d *Debouncer) C() <-chan Filters {
	return d.out
}

// Stop cancels any pending timer. A stopped Debouncer never emits again.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
