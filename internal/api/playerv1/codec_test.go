package playerv1

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodec_Name(t *testing.T) {
	assert.Equal(t, "json", Codec{}.Name())
}

func TestCodec_WireFormat(t *testing.T) {
	data, err := Codec{}.Marshal(&Notification{
		Type:       NotificationTypePlayFailed,
		SequenceNo: 7,
		Status:     &Status{CurrentIndex: 2, Watchdog: "idle"},
		Error:      "playback blocked",
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "play_failed",
		"sequence_no": 7,
		"status": {
			"current_index": 2,
			"is_playing": false,
			"pending": false,
			"position_ms": 0,
			"active_slot": 0,
			"watchdog": "idle"
		},
		"error": "playback blocked"
	}`, string(data))
}

func TestCodec_Unmarshal(t *testing.T) {
	var req SelectTrackRequest
	require.NoError(t, Codec{}.Unmarshal([]byte(`{"index": 3}`), &req))
	assert.Equal(t, int32(3), req.Index)

	// Empty bodies decode to the zero message.
	var empty SelectTrackRequest
	require.NoError(t, Codec{}.Unmarshal(nil, &empty))
	assert.Zero(t, empty.Index)

	require.Error(t, Codec{}.Unmarshal([]byte(`{"index": "x"}`), &req))
}
