package hub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
)

type written struct {
	typ  int
	data []byte
}

// fakeConn blocks reads until closed and records writes. When gate is
// non-nil every data write waits on it.
type fakeConn struct {
	writes chan written
	gate   chan struct{}

	once   sync.Once
	closed chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		writes: make(chan written, 64),
		closed: make(chan struct{}),
	}
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}
func (f *fakeConn) ReadMessage() (int, []byte, error) {
	<-f.closed
	return 0, nil, errors.New("closed")
}

func (f *fakeConn) WriteMessage(typ int, data []byte) error {
	if f.gate != nil && typ != websocket.CloseMessage {
		select {
		case <-f.gate:
		case <-f.closed:
			return errors.New("closed")
		}
	}
	select {
	case f.writes <- written{typ, data}:
	default:
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesViewer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("camera")
	go h.Run(ctx)
	waitFor(t, "hub running", h.IsRunning)

	conn := newFakeConn()
	served := make(chan struct{})
	go func() {
		h.Serve(conn)
		close(served)
	}()
	waitFor(t, "viewer registered", func() bool { return h.ClientCount() == 1 })

	h.BroadcastBinary([]byte{0xff, 0xd8})
	if err := h.BroadcastJSON(map[string]int{"seq": 1}); err != nil {
		t.Fatal(err)
	}

	got := <-conn.writes
	if got.typ != websocket.BinaryMessage || len(got.data) != 2 {
		t.Errorf("first write = %+v", got)
	}
	got = <-conn.writes
	if got.typ != websocket.TextMessage || string(got.data) != `{"seq":1}` {
		t.Errorf("second write = %d %s", got.typ, got.data)
	}

	// Viewer hangs up
	conn.Close()
	<-served
	waitFor(t, "viewer unregistered", func() bool { return h.ClientCount() == 0 })
}

func TestHub_ShutdownClosesViewers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New("events")
	go h.Run(ctx)

	conn := newFakeConn()
	served := make(chan struct{})
	go func() {
		h.Serve(conn)
		close(served)
	}()
	waitFor(t, "viewer registered", func() bool { return h.ClientCount() == 1 })

	cancel()

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after hub shutdown")
	}
	waitFor(t, "hub stopped", func() bool { return !h.IsRunning() })

	// Late viewers are turned away
	late := newFakeConn()
	h.Serve(late)
	select {
	case <-late.closed:
	default:
		t.Error("late viewer connection left open")
	}
}

func TestHub_DropsSlowViewer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("camera")
	go h.Run(ctx)

	slow := newFakeConn()
	slow.gate = make(chan struct{}) // never opened
	go h.Serve(slow)
	waitFor(t, "viewer registered", func() bool { return h.ClientCount() == 1 })

	for i := 0; i < sendBuffer+8; i++ {
		h.BroadcastBinary([]byte{byte(i)})
	}
	waitFor(t, "slow viewer dropped", func() bool { return h.ClientCount() == 0 })
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	h := New("idle") // not running: nothing drains the queue

	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			h.BroadcastBinary(nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Broadcast blocked")
	}
	if h.Dropped() == 0 {
		t.Error("expected dropped broadcasts")
	}
}
