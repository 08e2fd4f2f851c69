package protocol

// Command kinds. The relay treats a command as an opaque frame and only
// routes it; the constants exist so prompter pages, remote pages and
// tests speak one vocabulary.
const (
	CmdPlay          = "PLAY"
	CmdPause         = "PAUSE"
	CmdTogglePlay    = "TOGGLE_PLAY"
	CmdSetSpeed      = "SET_SPEED"
	CmdIncSpeed      = "INC_SPEED"
	CmdDecSpeed      = "DEC_SPEED"
	CmdSetFontSize   = "SET_FONT_SIZE"
	CmdIncFont       = "INC_FONT"
	CmdDecFont       = "DEC_FONT"
	CmdToggleMirror  = "TOGGLE_MIRROR"
	CmdSetFontFamily = "SET_FONT_FAMILY"
	CmdSetTextColor  = "SET_TEXT_COLOR"
	CmdSetAlign      = "SET_ALIGN"
	CmdNudgeAlign    = "NUDGE_ALIGN"
	CmdNudgeScroll   = "NUDGE_SCROLL"
	CmdResetScroll   = "RESET_SCROLL"
	CmdLoadScript    = "LOAD_SCRIPT"
)

// Command is the playback/display directive a remote sends. Only the
// fields matching the kind are populated.
type Command struct {
	Kind     string   `json:"type"`
	Value    *float64 `json:"value,omitempty"`    // SET_SPEED, SET_FONT_SIZE
	Step     *float64 `json:"step,omitempty"`     // INC/DEC_SPEED, INC/DEC_FONT
	DeltaPx  *float64 `json:"deltaPx,omitempty"`  // NUDGE_ALIGN, NUDGE_SCROLL
	Text     string   `json:"text,omitempty"`     // SET_FONT_FAMILY, SET_TEXT_COLOR, SET_ALIGN
	ScriptID string   `json:"scriptId,omitempty"` // LOAD_SCRIPT
}

// Envelope for commands on the wire: the command object itself carries
// the "type": "PLAY" style discriminator, so the relay wraps it as
// {"type": "command", "command": {...}} when framing is needed.
type CommandMessage struct {
	Type    string  `json:"type"`
	Command Command `json:"command"`
}
