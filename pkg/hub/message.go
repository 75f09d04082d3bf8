// Package hub fans viewer messages out to websocket clients using a
// single goroutine that owns the client set.
package hub

// MessageType indicates the websocket message format
type MessageType int

const (
	// TextMessage is a JSON-encoded event
	TextMessage MessageType = iota
	// BinaryMessage is a JPEG frame
	BinaryMessage
)

// Message is one broadcast payload.
type Message struct {
	Type MessageType
	Data []byte
}
