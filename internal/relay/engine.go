// Package relay is the protocol core: it tracks which connection joined
// which session under which role, routes commands from remotes to the
// prompter and propagates prompter state back to remotes. It holds the
// only shared mutable store in the process and never performs blocking
// I/O while locked; every delivery is a non-blocking TrySend.
package relay

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/promptcast/promptcast/internal/core"
	"github.com/promptcast/promptcast/internal/domain"
	"github.com/promptcast/promptcast/internal/protocol"
)

// connEntry pairs a transport handle with the session metadata attached
// on the first successful join. The (sessionID, role) pair is immutable
// once set; a connection has to drop and redial to change it.
type connEntry struct {
	conn      core.SignalConnection
	sessionID domain.SessionID
	role      domain.Role
}

func (e *connEntry) joined() bool { return e.sessionID != "" }

// Engine owns the session store and the connection registry behind one
// lock. All operations are short CPU-only critical sections.
type Engine struct {
	mu       sync.RWMutex
	conns    map[core.ConnID]*connEntry
	sessions map[domain.SessionID]*session
}

func NewEngine() *Engine {
	return &Engine{
		conns:    make(map[core.ConnID]*connEntry),
		sessions: make(map[domain.SessionID]*session),
	}
}

// Register binds a freshly opened transport connection. The connection
// belongs to no session until it joins one.
func (e *Engine) Register(id core.ConnID, conn core.SignalConnection) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.conns[id] = &connEntry{conn: conn}
	log.Info().Str("module", "relay").Str("conn", string(id)).Msg("connection registered")
}

// Join handles a join message. Malformed joins are dropped without a
// reply; a PIN mismatch is the one case answered with session:error.
func (e *Engine) Join(id core.ConnID, j protocol.Join) {
	sid := domain.SessionID(j.SessionID)
	role := domain.Role(j.Role)
	if !sid.Valid() || !role.Valid() {
		log.Debug().Str("module", "relay").Str("conn", string(id)).Str("role", j.Role).Msg("join dropped: bad session or role")
		return
	}

	e.mu.Lock()
	entry, ok := e.conns[id]
	if !ok {
		e.mu.Unlock()
		return
	}
	if entry.joined() && (entry.sessionID != sid || entry.role != role) {
		e.mu.Unlock()
		log.Debug().Str("module", "relay").Str("conn", string(id)).Msg("join dropped: connection already bound")
		return
	}
	sess, ok := e.sessions[sid]
	if !ok {
		sess = newSession(sid)
		e.sessions[sid] = sess
		log.Info().Str("module", "relay").Str("session", string(sid)).Msg("session created")
	}
	if sess.pin != "" && j.Pin != sess.pin {
		conn := entry.conn
		e.mu.Unlock()
		log.Info().Str("module", "relay").Str("conn", string(id)).Str("session", string(sid)).Msg("join rejected: pin mismatch")
		e.sendJSON(conn, protocol.SessionError{Type: protocol.TypeSessionError, Message: "Invalid PIN"})
		return
	}
	if sess.pin == "" && j.Pin != "" {
		sess.pin = j.Pin
	}

	entry.sessionID = sid
	entry.role = role
	var displaced core.ConnID
	switch role {
	case domain.RolePrompter:
		if sess.prompter != "" && sess.prompter != id {
			displaced = sess.prompter
		}
		sess.prompter = id
	case domain.RoleRemote:
		sess.remotes[id] = struct{}{}
	}

	targets := e.recipientsLocked(sess)
	status := sess.status()
	var catchup core.Frame
	if role == domain.RoleRemote {
		catchup = sess.lastState
	}
	joiner := entry.conn
	e.mu.Unlock()

	if displaced != "" {
		// Last-writer-wins: the old prompter is not notified, so a
		// second tab of the same operator can reclaim the role.
		log.Info().Str("module", "relay").Str("session", string(sid)).Str("old", string(displaced)).Str("new", string(id)).Msg("prompter displaced")
	}
	log.Info().Str("module", "relay").Str("conn", string(id)).Str("session", string(sid)).Str("role", string(role)).Msg("joined")

	e.broadcastJSON(targets, status)
	if catchup != nil {
		if err := joiner.TrySend(catchup); err != nil {
			log.Debug().Err(err).Str("module", "relay").Str("conn", string(id)).Msg("catch-up dropped")
		}
	}
}

// Command routes a command frame to the session's prompter, verbatim.
// Fire-and-forget: a sender with the wrong role, or a session with no
// prompter, means the frame is dropped without a reply.
func (e *Engine) Command(id core.ConnID, frame core.Frame) {
	e.mu.RLock()
	entry, ok := e.conns[id]
	if !ok || entry.role != domain.RoleRemote {
		e.mu.RUnlock()
		log.Debug().Str("module", "relay").Str("conn", string(id)).Msg("command dropped: sender is not a remote")
		return
	}
	sess := e.sessions[entry.sessionID]
	var target core.SignalConnection
	if sess != nil && sess.prompter != "" {
		if p, ok := e.conns[sess.prompter]; ok {
			target = p.conn
		}
	}
	e.mu.RUnlock()

	if target == nil {
		log.Debug().Str("module", "relay").Str("conn", string(id)).Msg("command dropped: no prompter")
		return
	}
	if err := target.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "relay").Str("conn", string(id)).Msg("command delivery dropped")
	}
}

// StateUpdate caches the snapshot frame and fans it out to every remote
// in the session. Only the connection currently holding the prompter
// slot is authoritative; a displaced prompter's updates are dropped.
func (e *Engine) StateUpdate(id core.ConnID, frame core.Frame) {
	e.mu.Lock()
	entry, ok := e.conns[id]
	if !ok || entry.role != domain.RolePrompter {
		e.mu.Unlock()
		log.Debug().Str("module", "relay").Str("conn", string(id)).Msg("state dropped: sender is not a prompter")
		return
	}
	sess := e.sessions[entry.sessionID]
	if sess == nil || sess.prompter != id {
		e.mu.Unlock()
		log.Debug().Str("module", "relay").Str("conn", string(id)).Msg("state dropped: prompter slot lost")
		return
	}
	sess.lastState = frame
	targets := e.remoteConnsLocked(sess)
	e.mu.Unlock()

	e.fanOut(targets, frame)
}

// StateRequest unicasts the cached snapshot to a remote, typically
// right after it reconnects. Nothing is sent when no state exists yet.
func (e *Engine) StateRequest(id core.ConnID) {
	e.mu.RLock()
	entry, ok := e.conns[id]
	if !ok || entry.role != domain.RoleRemote {
		e.mu.RUnlock()
		log.Debug().Str("module", "relay").Str("conn", string(id)).Msg("state request dropped: sender is not a remote")
		return
	}
	sess := e.sessions[entry.sessionID]
	var frame core.Frame
	if sess != nil {
		frame = sess.lastState
	}
	conn := entry.conn
	e.mu.RUnlock()

	if frame == nil {
		return
	}
	if err := conn.TrySend(frame); err != nil {
		log.Debug().Err(err).Str("module", "relay").Str("conn", string(id)).Msg("state reply dropped")
	}
}

// Disconnect clears the connection's registration and, when it had
// joined a session, its slot or set membership there, then tells the
// remaining connections the new connectivity. The session record itself
// persists for a future reconnect.
func (e *Engine) Disconnect(id core.ConnID) {
	e.mu.Lock()
	entry, ok := e.conns[id]
	if !ok {
		e.mu.Unlock()
		return
	}
	delete(e.conns, id)
	if !entry.joined() {
		e.mu.Unlock()
		log.Info().Str("module", "relay").Str("conn", string(id)).Msg("connection closed before join")
		return
	}
	sess := e.sessions[entry.sessionID]
	if sess == nil {
		e.mu.Unlock()
		return
	}
	switch entry.role {
	case domain.RolePrompter:
		// Guard against having been displaced meanwhile.
		if sess.prompter == id {
			sess.prompter = ""
		}
	case domain.RoleRemote:
		delete(sess.remotes, id)
	}
	targets := e.recipientsLocked(sess)
	status := sess.status()
	e.mu.Unlock()

	log.Info().Str("module", "relay").Str("conn", string(id)).Str("session", string(entry.sessionID)).Str("role", string(entry.role)).Msg("disconnected")
	e.broadcastJSON(targets, status)
}

// Stats reports live session and connection counts.
func (e *Engine) Stats() (sessions, conns int) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions), len(e.conns)
}

// recipientsLocked resolves every connection currently associated with
// the session: the prompter, if any, plus all remotes. Caller holds mu.
func (e *Engine) recipientsLocked(sess *session) []core.SignalConnection {
	out := make([]core.SignalConnection, 0, len(sess.remotes)+1)
	if sess.prompter != "" {
		if p, ok := e.conns[sess.prompter]; ok {
			out = append(out, p.conn)
		}
	}
	for rid := range sess.remotes {
		if r, ok := e.conns[rid]; ok {
			out = append(out, r.conn)
		}
	}
	return out
}

func (e *Engine) remoteConnsLocked(sess *session) []core.SignalConnection {
	out := make([]core.SignalConnection, 0, len(sess.remotes))
	for rid := range sess.remotes {
		if r, ok := e.conns[rid]; ok {
			out = append(out, r.conn)
		}
	}
	return out
}

// fanOut delivers one frame to each target independently; a failed send
// never aborts the remaining sends.
func (e *Engine) fanOut(targets []core.SignalConnection, frame core.Frame) {
	dropped := 0
	for _, t := range targets {
		if err := t.TrySend(frame); err != nil {
			dropped++
		}
	}
	if dropped > 0 {
		log.Debug().Str("module", "relay").Int("dropped", dropped).Int("targets", len(targets)).Msg("fan-out partially dropped")
	}
}

func (e *Engine) broadcastJSON(targets []core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("broadcast marshal")
		return
	}
	e.fanOut(targets, b)
}

func (e *Engine) sendJSON(conn core.SignalConnection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "relay").Msg("send marshal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Debug().Err(err).Str("module", "relay").Msg("send dropped")
	}
}
