package protocol

// PrompterState is the authoritative playback snapshot the prompter
// publishes. The relay never inspects individual fields; it caches and
// forwards the whole frame verbatim.
type PrompterState struct {
	SessionID      string  `json:"sessionId"`
	IsPlaying      bool    `json:"isPlaying"`
	Speed          float64 `json:"speed"`    // pixels per second
	FontSize       float64 `json:"fontSize"` // pixels
	Mirror         bool    `json:"mirror"`
	Align          string  `json:"align"` // left | center | right
	AlignOffset    float64 `json:"alignOffset"`
	FontFamily     string  `json:"fontFamily"`
	TextColor      string  `json:"textColor"`
	ScriptTitle    string  `json:"scriptTitle"`
	ScrollPosition float64 `json:"scrollPosition"`
}

// StateUpdate frames a snapshot on the wire. PrompterState has no type
// field of its own, so its fields sit flat beside the discriminator.
type StateUpdate struct {
	Type string `json:"type"`
	PrompterState
}

// StateRequest asks the relay for the cached snapshot, if any.
type StateRequest struct {
	Type string `json:"type"`
}
