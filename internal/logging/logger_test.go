package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"trace":    zerolog.TraceLevel,
		"DEBUG":    zerolog.DebugLevel,
		"info":     zerolog.InfoLevel,
		"":         zerolog.InfoLevel,
		"warning":  zerolog.WarnLevel,
		"error":    zerolog.ErrorLevel,
		"disabled": zerolog.Disabled,
		"bogus":    zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestPgxLevel(t *testing.T) {
	assert.Equal(t, tracelog.LogLevelDebug, PgxLevel(zerolog.DebugLevel))
	assert.Equal(t, tracelog.LogLevelInfo, PgxLevel(zerolog.InfoLevel))
	assert.Equal(t, tracelog.LogLevelError, PgxLevel(zerolog.ErrorLevel))
	assert.Equal(t, tracelog.LogLevelNone, PgxLevel(zerolog.Disabled))
}

func TestInit_ReplacesGlobalLogger(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})

	zlog.Info().Msg("dropped")
	apiLogger := With("api")
	apiLogger.Warn().Msg("kept")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "warn", entry["level"])
}
