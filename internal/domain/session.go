// Package domain contains entity without logic, just meta-data
package domain

// SessionID is the opaque identifier a prompter/remote pair shares.
// It is generated by the client that starts the session; the server
// only requires it to be non-empty.
type SessionID string

func (s SessionID) Valid() bool { return s != "" }
