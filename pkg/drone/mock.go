package drone

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/teslashibe/go-follow/pkg/tracking"
)

// Mock is a recording platform for tests and dry runs.
type Mock struct {
	mu       sync.Mutex
	intents  []tracking.Intent
	commands []string
	flying   bool
	closed   bool

	// Delay simulates the duration of takeoff and landing.
	Delay time.Duration
	// ExecuteErr, TakeoffErr and LandErr are returned when set.
	ExecuteErr error
	TakeoffErr error
	LandErr    error
	// Block, when non-nil, stalls Execute until it is closed.
	Block chan struct{}
}

// NewMock creates an empty mock platform.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) record(cmd string) {
	m.mu.Lock()
	m.commands = append(m.commands, cmd)
	m.mu.Unlock()
}

// Execute records the intent and its commands.
func (m *Mock) Execute(intent tracking.Intent) error {
	if m.Block != nil {
		<-m.Block
	}
	m.mu.Lock()
	m.intents = append(m.intents, intent)
	for _, c := range CommandsFor(intent) {
		m.commands = append(m.commands, c.String())
	}
	m.mu.Unlock()
	return m.ExecuteErr
}

// RC records an rc command.
func (m *Mock) RC(leftRight, forwardBack, upDown, yaw int) error {
	m.record(fmt.Sprintf("rc %d %d %d %d", leftRight, forwardBack, upDown, yaw))
	return nil
}

// Hold records a zero rc command.
func (m *Mock) Hold() error {
	return m.RC(0, 0, 0, 0)
}

// Takeoff records a takeoff after Delay.
func (m *Mock) Takeoff(ctx context.Context) error {
	return m.maneuver(ctx, "takeoff", true, m.TakeoffErr)
}

// Land records a landing after Delay.
func (m *Mock) Land(ctx context.Context) error {
	return m.maneuver(ctx, "land", false, m.LandErr)
}

func (m *Mock) maneuver(ctx context.Context, cmd string, flying bool, fail error) error {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	m.record(cmd)
	if fail != nil {
		return fail
	}
	m.mu.Lock()
	m.flying = flying
	m.mu.Unlock()
	return nil
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Intents returns the executed intents.
func (m *Mock) Intents() []tracking.Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tracking.Intent(nil), m.intents...)
}

// Commands returns every recorded command string.
func (m *Mock) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.commands...)
}

// Flying reports the simulated flight state.
func (m *Mock) Flying() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flying
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
