package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestGetLoggerAddsComponentField(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	defer func() { log.Logger = prev }()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger := GetLogger("reader")
	logger.Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"reader"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestSetupLoggerLevels(t *testing.T) {
	tests := []struct {
		verbosity int
		expected  zerolog.Level
	}{
		{verbosity: 0, expected: zerolog.WarnLevel},
		{verbosity: 1, expected: zerolog.InfoLevel},
		{verbosity: 2, expected: zerolog.DebugLevel},
		{verbosity: 3, expected: zerolog.TraceLevel},
	}

	for _, tt := range tests {
		SetupLogger(tt.verbosity)
		assert.Equal(t, tt.expected, zerolog.GlobalLevel())
	}
}
