package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/promptcast/promptcast/internal/protocol"
)

func (ctl *Controller) handlePing(c *wsConn) {
	b, err := json.Marshal(protocol.Pong{Type: protocol.TypePong})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("pong marshal")
		return
	}
	_ = c.TrySend(b)
}
