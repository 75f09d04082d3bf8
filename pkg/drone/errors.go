package drone

import "errors"

// Sentinel errors for drone operations.
var (
	// ErrNotConnected means the platform never acknowledged SDK mode.
	ErrNotConnected = errors.New("drone: not connected")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("drone: closed")

	// ErrBusy means a blocking exchange (takeoff, land) owns the link and
	// the command was not sent.
	ErrBusy = errors.New("drone: busy")

	// ErrTimeout means the platform did not answer in time.
	ErrTimeout = errors.New("drone: response timeout")

	// ErrUnknownDirection is returned for an unknown manual direction.
	ErrUnknownDirection = errors.New("drone: unknown direction")

	// ErrUnknownSink is returned by NewSink for an unknown kind.
	ErrUnknownSink = errors.New("drone: unknown sink kind")
)

// CommandError is a non-"ok" answer from the platform.
type CommandError struct {
	Command  string
	Response string
}

func (e *CommandError) Error() string {
	return "drone: " + e.Command + ": " + e.Response
}
