package drone

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-follow/internal/log"
	"github.com/teslashibe/go-follow/pkg/tracking"
)

// Tello SDK defaults.
const (
	DefaultTelloAddr  = "192.168.10.1:8889"
	DefaultLocalAddr  = ":8889"
	DefaultVideoURL   = "udp://@0.0.0.0:11111"
	DefaultTelloSpeed = 50

	// replySettle bounds how long an exchange waits for answers to earlier
	// moves before it sends its own command.
	replySettle = 3 * time.Second
)

// Movement modes for Tello.Execute.
const (
	// ModeMove sends one named SDK move per active axis ("forward 20").
	ModeMove = "move"
	// ModeRC sends a single "rc" velocity command per intent.
	ModeRC = "rc"
)

// TelloConfig configures the SDK connection.
type TelloConfig struct {
	Address        string        `yaml:"address" json:"address"`                 // drone command endpoint
	LocalAddr      string        `yaml:"local_addr" json:"local_addr"`           // local bind for responses
	Mode           string        `yaml:"mode" json:"mode"`                       // "move" or "rc"
	Speed          int           `yaml:"speed" json:"speed"`                     // cm/s, also the manual rc velocity
	CommandTimeout time.Duration `yaml:"command_timeout" json:"command_timeout"` // ack wait for short commands
	FlightTimeout  time.Duration `yaml:"flight_timeout" json:"flight_timeout"`   // ack wait for takeoff/land
	StreamOn       bool          `yaml:"stream_on" json:"stream_on"`             // start the video stream at connect
}

// DefaultTelloConfig returns defaults for a Tello on its own access point.
func DefaultTelloConfig() TelloConfig {
	return TelloConfig{
		Address:        DefaultTelloAddr,
		LocalAddr:      DefaultLocalAddr,
		Mode:           ModeMove,
		Speed:          DefaultTelloSpeed,
		CommandTimeout: 7 * time.Second,
		FlightTimeout:  20 * time.Second,
		StreamOn:       true,
	}
}

// Tello speaks the Tello SDK text protocol over UDP.
//
// Movement commands are fire-and-forget: they are written to the socket and
// their answers are discarded. Setup commands, takeoff and land wait for the
// drone's "ok". Named moves are refused with ErrBusy while such an exchange
// runs, and the exchange first lets answers to earlier moves arrive, so a
// move's answer is never taken for the maneuver's. rc commands get no answer
// and are always sent.
type Tello struct {
	cfg    TelloConfig
	conn   *net.UDPConn
	remote *net.UDPAddr
	logger *slog.Logger

	exchange   sync.Mutex // one request/response exchange at a time
	responses  chan string
	unanswered atomic.Int64 // named moves whose answer has not arrived
	done       chan struct{}
	closed     atomic.Bool
	streaming  atomic.Bool
	closeOnce  sync.Once

	sent atomic.Uint64
}

// DialTello binds the local port, enters SDK mode and applies the speed.
// Failure to get an answer to "command" is fatal: the drone is not there.
func DialTello(ctx context.Context, cfg TelloConfig) (*Tello, error) {
	remote, err := net.ResolveUDPAddr("udp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.Address, err)
	}
	local, err := net.ResolveUDPAddr("udp", cfg.LocalAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", cfg.LocalAddr, err)
	}
	conn, err := net.ListenUDP("udp", local)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.LocalAddr, err)
	}

	t := &Tello{
		cfg:       cfg,
		conn:      conn,
		remote:    remote,
		logger:    log.Component("tello").With("addr", cfg.Address),
		responses: make(chan string, 16),
		done:      make(chan struct{}),
	}
	go t.readLoop()

	if err := t.do(ctx, "command", cfg.CommandTimeout); err != nil {
		t.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	if cfg.Speed > 0 {
		if err := t.do(ctx, fmt.Sprintf("speed %d", cfg.Speed), cfg.CommandTimeout); err != nil {
			t.logger.Warn("speed not accepted", "speed", cfg.Speed, "error", err)
		}
	}
	if cfg.StreamOn {
		if err := t.do(ctx, "streamon", cfg.CommandTimeout); err != nil {
			t.Close()
			return nil, fmt.Errorf("streamon: %w", err)
		}
		t.streaming.Store(true)
	}

	t.logger.Info("connected", "mode", cfg.Mode)
	return t, nil
}

// readLoop forwards every datagram from the drone to the responses channel.
// Answers nobody waits for are dropped once the buffer is full.
func (t *Tello) readLoop() {
	defer close(t.done)
	buf := make([]byte, 1024)
	for {
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			t.logger.Debug("read error", "error", err)
			continue
		}
		resp := strings.TrimSpace(string(buf[:n]))
		if t.consumeMoveAnswer() {
			t.logger.Debug("move answered", "resp", resp)
			continue
		}
		select {
		case t.responses <- resp:
		default:
		}
	}
}

// consumeMoveAnswer claims the next datagram for an outstanding move.
func (t *Tello) consumeMoveAnswer() bool {
	for {
		n := t.unanswered.Load()
		if n <= 0 {
			return false
		}
		if t.unanswered.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// settle waits until earlier moves are answered, then drops whatever is
// still buffered. Answers lost on the way are written off after replySettle.
func (t *Tello) settle(ctx context.Context) error {
	deadline := time.Now().Add(replySettle)
	for t.unanswered.Load() > 0 && time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Millisecond):
		}
	}
	if n := t.unanswered.Swap(0); n > 0 {
		t.logger.Debug("move answers lost", "count", n)
	}
	for {
		select {
		case <-t.responses:
		default:
			return nil
		}
	}
}

// send writes one command without waiting for an answer.
func (t *Tello) send(cmd string) error {
	if t.closed.Load() {
		return ErrClosed
	}
	if _, err := t.conn.WriteToUDP([]byte(cmd), t.remote); err != nil {
		return fmt.Errorf("send %q: %w", cmd, err)
	}
	t.sent.Add(1)
	t.logger.Debug("sent", "cmd", cmd)
	return nil
}

// do sends cmd and waits for the drone's answer.
func (t *Tello) do(ctx context.Context, cmd string, timeout time.Duration) error {
	t.exchange.Lock()
	defer t.exchange.Unlock()

	if err := t.settle(ctx); err != nil {
		return err
	}

	if err := t.send(cmd); err != nil {
		return err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-t.responses:
		if strings.EqualFold(resp, "ok") {
			return nil
		}
		return &CommandError{Command: cmd, Response: resp}
	case <-timer.C:
		return fmt.Errorf("%w: %q after %v", ErrTimeout, cmd, timeout)
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrClosed
	}
}

// Execute sends the intent as named moves or as one rc command depending on
// the configured mode. A zero intent sends nothing.
func (t *Tello) Execute(intent tracking.Intent) error {
	if intent.IsZero() {
		return nil
	}
	if t.cfg.Mode == ModeRC {
		return t.RC(RCFor(intent))
	}
	if !t.exchange.TryLock() {
		return ErrBusy
	}
	defer t.exchange.Unlock()

	for _, c := range CommandsFor(intent) {
		t.unanswered.Add(1)
		if err := t.send(c.String()); err != nil {
			t.unanswered.Add(-1)
			return err
		}
	}
	return nil
}

// RC sends a velocity command. Values are clamped to [-100, 100].
func (t *Tello) RC(leftRight, forwardBack, upDown, yaw int) error {
	return t.send(fmt.Sprintf("rc %d %d %d %d",
		clampRC(leftRight), clampRC(forwardBack), clampRC(upDown), clampRC(yaw)))
}

// Hold zeroes all velocity channels.
func (t *Tello) Hold() error {
	return t.RC(0, 0, 0, 0)
}

// Takeoff blocks until the drone reports the takeoff complete.
func (t *Tello) Takeoff(ctx context.Context) error {
	return t.do(ctx, "takeoff", t.cfg.FlightTimeout)
}

// Land blocks until the drone reports it has landed.
func (t *Tello) Land(ctx context.Context) error {
	return t.do(ctx, "land", t.cfg.FlightTimeout)
}

// Sent returns the number of datagrams written.
func (t *Tello) Sent() uint64 {
	return t.sent.Load()
}

// Close stops the video stream (best effort) and releases the socket.
func (t *Tello) Close() error {
	var err error
	t.closeOnce.Do(func() {
		if t.streaming.Load() {
			t.send("streamoff")
		}
		t.closed.Store(true)
		err = t.conn.Close()
		<-t.done
		t.logger.Info("disconnected", "sent", t.sent.Load())
	})
	return err
}

func clampRC(v int) int {
	if v < -100 {
		return -100
	}
	if v > 100 {
		return 100
	}
	return v
}
