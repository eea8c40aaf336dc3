package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-fragment-bot/internal/config"
)

func TestContextCarriesTraceAndUser(t *testing.T) {
	var buf bytes.Buffer
	orig := Log
	Log = New(&buf, config.LogConfig{Level: "debug"})
	defer func() { Log = orig }()

	ctx := WithUser(Context(context.Background()), 42)
	Ctx(ctx).Info().Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.EqualValues(t, 42, line["user_id"])
	assert.NotEmpty(t, line["trace_id"])
}

func TestCtxFallsBackToBase(t *testing.T) {
	assert.Equal(t, &Log, Ctx(context.Background()))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "abc", Snippet("abc", 5))
	assert.Equal(t, "ab", Snippet("abcdef", 2))
	assert.Equal(t, "hé", Snippet("héllo", 2))
}

func TestNewUnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, config.LogConfig{Level: "chatty"})
	l.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	l.Info().Msg("shown")
	assert.NotZero(t, buf.Len())
}
