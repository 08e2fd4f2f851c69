package core

// Frame is a raw wire payload (a single JSON message).
type Frame []byte

// ConnID identifies one transport connection for its whole lifetime.
type ConnID string

// SignalConnection abstracts the outbound half of a messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
