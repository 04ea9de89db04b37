package backend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/isaibox/internal/audio/simaudio"
	"github.com/osa030/isaibox/internal/infra/config"
)

func TestNewPair_Sim(t *testing.T) {
	pair, err := NewPair(config.AudioConfig{
		Backend:  "sim",
		Settings: map[string]any{"track_length": "90s", "check_files": true},
	}, 100*time.Millisecond)
	require.NoError(t, err)

	for _, h := range pair {
		require.NotNil(t, h)
		_, ok := h.(*simaudio.Handle)
		assert.True(t, ok)
		assert.NoError(t, h.Close())
	}
}

func TestNewPair_Unsupported(t *testing.T) {
	_, err := NewPair(config.AudioConfig{Backend: "alsa"}, time.Second)
	assert.Error(t, err)
}

func TestDecodeSettings(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		want     simaudio.Settings
		wantErr  bool
	}{
		{
			name:     "defaults",
			settings: nil,
			want:     simaudio.Settings{TrackLength: 3 * time.Minute},
		},
		{
			name:     "duration string",
			settings: map[string]any{"track_length": "45s", "start_latency": "20ms"},
			want:     simaudio.Settings{TrackLength: 45 * time.Second, StartLatency: 20 * time.Millisecond},
		},
		{
			name:     "weakly typed bool",
			settings: map[string]any{"check_files": "true"},
			want:     simaudio.Settings{TrackLength: 3 * time.Minute, CheckFiles: true},
		},
		{
			name:     "negative latency",
			settings: map[string]any{"start_latency": "-1s"},
			wantErr:  true,
		},
		{
			name:     "garbage duration",
			settings: map[string]any{"track_length": "soon"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got simaudio.Settings
			err := decodeSettings(tt.settings, &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
