package drone

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-follow/internal/log"
	"github.com/teslashibe/go-follow/pkg/tracking"
)

// DispatchStats reports dispatcher activity.
type DispatchStats struct {
	Dispatched uint64 `json:"dispatched"` // intents accepted from the frame loop
	Executed   uint64 `json:"executed"`   // intents handed to the sink
	Coalesced  uint64 `json:"coalesced"`  // intents replaced before execution
	Errors     uint64 `json:"errors"`     // sink errors
	Busy       uint64 `json:"busy"`       // intents skipped during a maneuver
	Holds      uint64 `json:"holds"`      // idle holds sent
}

// Dispatcher moves intents off the frame loop onto a single worker.
// Dispatch never blocks: if the worker is still busy with an earlier
// intent, the pending one is replaced by the newest.
type Dispatcher struct {
	sink      Sink
	holdAfter time.Duration
	logger    *slog.Logger

	pending chan tracking.Intent
	stop    chan struct{}
	done    chan struct{}

	stopOnce sync.Once
	started  atomic.Bool

	dispatched atomic.Uint64
	executed   atomic.Uint64
	coalesced  atomic.Uint64
	errors     atomic.Uint64
	busy       atomic.Uint64
	holds      atomic.Uint64

	// Error logging throttle (worker goroutine only)
	lastErrorTime time.Time
}

// NewDispatcher creates a dispatcher for sink. When holdAfter is positive
// and the sink implements Holder, Hold is sent once after that long
// without a new intent.
func NewDispatcher(sink Sink, holdAfter time.Duration) *Dispatcher {
	return &Dispatcher{
		sink:      sink,
		holdAfter: holdAfter,
		logger:    log.Component("dispatcher"),
		pending:   make(chan tracking.Intent, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Dispatch queues intent for execution and returns immediately.
func (d *Dispatcher) Dispatch(intent tracking.Intent) {
	d.dispatched.Add(1)
	for {
		select {
		case d.pending <- intent:
			return
		default:
		}
		// Worker is behind: drop the stale intent and retry
		select {
		case <-d.pending:
			d.coalesced.Add(1)
		default:
		}
	}
}

// Run executes intents until Stop is called. Blocks.
func (d *Dispatcher) Run() {
	d.started.Store(true)
	defer close(d.done)

	holder, canHold := d.sink.(Holder)
	var (
		idle  *time.Timer
		idleC <-chan time.Time
	)
	if canHold && d.holdAfter > 0 {
		idle = time.NewTimer(d.holdAfter)
		idle.Stop()
		defer idle.Stop()
	}

	for {
		select {
		case <-d.stop:
			return

		case intent := <-d.pending:
			d.execute(intent)
			if idle != nil {
				idle.Reset(d.holdAfter)
				idleC = idle.C
			}

		case <-idleC:
			idleC = nil
			d.holds.Add(1)
			if err := holder.Hold(); err != nil {
				d.recordError("hold", err)
			}
		}
	}
}

func (d *Dispatcher) execute(intent tracking.Intent) {
	d.executed.Add(1)
	if err := d.sink.Execute(intent); err != nil {
		if errors.Is(err, ErrBusy) {
			d.busy.Add(1)
			d.logger.Debug("intent skipped, sink busy", "intent", intent.String())
			return
		}
		d.recordError("execute", err)
		return
	}
	d.logger.Debug("intent executed", "intent", intent.String())
}

// recordError logs sink errors at most once per 5 seconds.
func (d *Dispatcher) recordError(op string, err error) {
	n := d.errors.Add(1)
	if d.lastErrorTime.IsZero() || time.Since(d.lastErrorTime) > 5*time.Second {
		d.logger.Warn("sink error", "op", op, "error", err, "total_errors", n)
		d.lastErrorTime = time.Now()
	}
}

// Stats returns a snapshot of the counters.
func (d *Dispatcher) Stats() DispatchStats {
	return DispatchStats{
		Dispatched: d.dispatched.Load(),
		Executed:   d.executed.Load(),
		Coalesced:  d.coalesced.Load(),
		Errors:     d.errors.Load(),
		Busy:       d.busy.Load(),
		Holds:      d.holds.Load(),
	}
}

// Stop halts the worker and waits for it to exit if it was started.
// Pending intents are discarded.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
		if d.started.Load() {
			<-d.done
		}
	})
}
