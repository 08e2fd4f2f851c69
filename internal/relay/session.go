package relay

import (
	"github.com/promptcast/promptcast/internal/core"
	"github.com/promptcast/promptcast/internal/domain"
	"github.com/promptcast/promptcast/internal/protocol"
)

// session is one prompter/remote pairing context. Created lazily on the
// first join that names its id and kept for the process lifetime so a
// prompter can reconnect into stale state.
type session struct {
	id       domain.SessionID
	prompter core.ConnID // empty when the slot is free
	remotes  map[core.ConnID]struct{}

	// lastState is the newest state:update frame received from the
	// current prompter, verbatim. Replaced whole, never merged.
	lastState core.Frame

	// pin is set by the first join that supplies one and compared on
	// every join after that.
	pin string
}

func newSession(id domain.SessionID) *session {
	return &session{
		id:      id,
		remotes: make(map[core.ConnID]struct{}),
	}
}

func (s *session) status() protocol.Status {
	return protocol.Status{
		Type:              protocol.TypeStatus,
		ConnectedPrompter: s.prompter != "",
		ConnectedRemote:   len(s.remotes) > 0,
	}
}
