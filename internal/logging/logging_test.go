package logging_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/omochice/turn-chat/internal/logging"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw    string
		want   zerolog.Level
		wantOK bool
	}{
		{"debug", zerolog.DebugLevel, true},
		{" INFO ", zerolog.InfoLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"off", zerolog.Disabled, true},
		{"", zerolog.WarnLevel, false},
		{"loud", zerolog.WarnLevel, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := logging.ParseLevel(tt.raw)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New(&buf, "chatclient", "warn")

	log.Info().Msg("handshake complete")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("accept failed")
	assert.Contains(t, buf.String(), "accept failed")
	assert.Contains(t, buf.String(), "chatclient")
}
