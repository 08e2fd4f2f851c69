package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeekType(t *testing.T) {
	typ, err := PeekType([]byte(`{"type":"join","sessionId":"s1","role":"remote"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeJoin, typ)

	_, err = PeekType([]byte("not json"))
	assert.Error(t, err)

	typ, err = PeekType([]byte(`{"sessionId":"s1"}`))
	require.NoError(t, err)
	assert.Empty(t, typ, "missing type decodes as empty, handled as unknown")
}

func TestCommandMessage_Decode(t *testing.T) {
	raw := []byte(`{"type":"command","command":{"type":"SET_SPEED","value":42.5}}`)

	var m CommandMessage
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, TypeCommand, m.Type)
	assert.Equal(t, CmdSetSpeed, m.Command.Kind)
	require.NotNil(t, m.Command.Value)
	assert.InDelta(t, 42.5, *m.Command.Value, 1e-9)
	assert.Nil(t, m.Command.Step)
}

func TestStateUpdate_FlatFields(t *testing.T) {
	u := StateUpdate{
		Type: TypeStateUpdate,
		PrompterState: PrompterState{
			SessionID: "s1",
			IsPlaying: true,
			Speed:     40,
			Align:     "center",
		},
	}
	b, err := json.Marshal(u)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "state:update", m["type"])
	assert.Equal(t, "s1", m["sessionId"], "snapshot fields sit beside the discriminator, not nested")
	assert.Equal(t, true, m["isPlaying"])
}
