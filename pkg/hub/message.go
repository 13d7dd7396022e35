// Package hub fans detection events out to websocket subscribers using a
// single goroutine that owns the client set.
package hub

// Message is one pre-encoded JSON text frame queued for every client
type Message struct {
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON
func NewJSONMessage(data []byte) Message {
	return Message{Data: data}
}
