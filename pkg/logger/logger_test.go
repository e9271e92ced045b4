package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtx_CarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = orig }()

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithFields(ctx, map[string]interface{}{"user_id": 9})
	Ctx(ctx).Info().Msg("hello")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-123", entry["request_id"])
	assert.EqualValues(t, 9, entry["user_id"])
	assert.Equal(t, "hello", entry["message"])
}

func TestCtx_FallsBackToGlobal(t *testing.T) {
	assert.Same(t, &log.Logger, Ctx(context.Background()))
}

func TestInit_DefaultsToInfo(t *testing.T) {
	closer, err := Init(Config{Level: "not-a-level", Format: "json", Output: "stdout"})
	require.NoError(t, err)
	defer closer()

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestInit_FileOutput(t *testing.T) {
	path := t.TempDir() + "/app.log"
	closer, err := Init(Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)
	assert.NoError(t, closer())
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
