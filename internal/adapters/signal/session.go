package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/promptcast/promptcast/internal/core"
	"github.com/promptcast/promptcast/internal/protocol"
)

func (ctl *Controller) handleJoin(id core.ConnID, data []byte) {
	var j protocol.Join
	if err := json.Unmarshal(data, &j); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad join payload")
		return
	}
	ctl.Engine.Join(id, j)
}
