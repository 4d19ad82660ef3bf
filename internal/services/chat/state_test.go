package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateText(t *testing.T) {
	for state, name := range stateNames {
		data, err := json.Marshal(state)
		require.NoError(t, err)
		assert.Equal(t, `"`+name+`"`, string(data))

		var decoded State
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, state, decoded)
	}

	var s State
	assert.Error(t, s.UnmarshalText([]byte("paused")))
	assert.Equal(t, "unknown", State(42).String())
}

func TestStateInFlight(t *testing.T) {
	inFlight := map[State]bool{
		StateIdle:                false,
		StateAwaiting:            true,
		StateStreaming:           true,
		StateStreamingWithStatus: true,
		StateErrored:             false,
		StateDone:                false,
	}
	for state, want := range inFlight {
		assert.Equal(t, want, state.InFlight(), state.String())
	}
}
