package drone

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-follow/internal/log"
)

// TaskKind names a flight maneuver.
type TaskKind string

const (
	TaskTakeoff TaskKind = "takeoff"
	TaskLand    TaskKind = "land"
)

// TaskState is the lifecycle of a flight task.
type TaskState string

const (
	TaskRunning   TaskState = "running"
	TaskSucceeded TaskState = "succeeded"
	TaskFailed    TaskState = "failed"
)

// maxTasks bounds the task history kept for polling.
const maxTasks = 32

// Task is an asynchronous takeoff or landing. Done is closed when the
// maneuver finishes; Err then reports its outcome.
type Task struct {
	ID      string
	Kind    TaskKind
	Started time.Time

	done chan struct{}

	mu       sync.Mutex
	err      error
	finished time.Time
}

// TaskInfo is a JSON-friendly task snapshot.
type TaskInfo struct {
	ID       string    `json:"id"`
	Kind     TaskKind  `json:"kind"`
	State    TaskState `json:"state"`
	Error    string    `json:"error,omitempty"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished,omitzero"`
}

// Done is closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task error once done, nil before.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// State returns the current lifecycle state.
func (t *Task) State() TaskState {
	select {
	case <-t.done:
		if t.Err() != nil {
			return TaskFailed
		}
		return TaskSucceeded
	default:
		return TaskRunning
	}
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Info returns a snapshot of the task.
func (t *Task) Info() TaskInfo {
	info := TaskInfo{ID: t.ID, Kind: t.Kind, State: t.State(), Started: t.Started}
	t.mu.Lock()
	if t.err != nil {
		info.Error = t.err.Error()
	}
	info.Finished = t.finished
	t.mu.Unlock()
	return info
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.finished = time.Now()
	t.mu.Unlock()
	close(t.done)
}

// Flight toggles between takeoff and landing without blocking the caller.
// At most one maneuver runs at a time; flight state flips only when the
// maneuver succeeds.
type Flight struct {
	flier   Flier
	timeout time.Duration

	mu      sync.Mutex
	flying  bool
	current *Task
	tasks   map[string]*Task
	order   []string
}

// NewFlight creates a flight controller. timeout bounds each maneuver.
func NewFlight(flier Flier, timeout time.Duration) *Flight {
	return &Flight{
		flier:   flier,
		timeout: timeout,
		tasks:   make(map[string]*Task),
	}
}

// Flying reports whether the last successful maneuver was a takeoff.
func (f *Flight) Flying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flying
}

// Toggle starts a landing when flying, a takeoff otherwise, and returns the
// task immediately. If a maneuver is already running it is returned instead
// of starting another.
func (f *Flight) Toggle() *Task {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.current != nil && f.current.State() == TaskRunning {
		return f.current
	}

	kind := TaskTakeoff
	if f.flying {
		kind = TaskLand
	}

	task := &Task{
		ID:      uuid.New().String(),
		Kind:    kind,
		Started: time.Now(),
		done:    make(chan struct{}),
	}
	f.current = task
	f.remember(task)

	go f.run(task)
	return task
}

func (f *Flight) run(task *Task) {
	logger := log.Component("flight").With("task", task.ID, "kind", task.Kind)
	logger.Info("maneuver started")

	ctx := context.Background()
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	var err error
	if task.Kind == TaskTakeoff {
		err = f.flier.Takeoff(ctx)
	} else {
		err = f.flier.Land(ctx)
	}

	if err == nil {
		f.mu.Lock()
		f.flying = task.Kind == TaskTakeoff
		f.mu.Unlock()
		logger.Info("maneuver complete", "elapsed", time.Since(task.Started))
	} else {
		logger.Warn("maneuver failed", "error", err)
	}
	task.finish(err)
}

// remember records task, evicting the oldest beyond maxTasks. Caller holds f.mu.
func (f *Flight) remember(task *Task) {
	f.tasks[task.ID] = task
	f.order = append(f.order, task.ID)
	if len(f.order) > maxTasks {
		delete(f.tasks, f.order[0])
		f.order = f.order[1:]
	}
}

// Task looks up a task by id.
func (f *Flight) Task(id string) (*Task, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[id]
	return t, ok
}

// Current returns the most recent task, or nil.
func (f *Flight) Current() *Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// LandNow waits for any running maneuver, then lands synchronously if
// flying. Used on shutdown.
func (f *Flight) LandNow(ctx context.Context) error {
	if cur := f.Current(); cur != nil {
		if err := cur.Wait(ctx); err != nil && ctx.Err() != nil {
			return err
		}
	}
	if !f.Flying() {
		return nil
	}
	task := f.Toggle()
	return task.Wait(ctx)
}
