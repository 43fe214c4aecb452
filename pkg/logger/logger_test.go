package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONEntry(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelInfo}).With(Component("ledger"))

	l.Debug("hidden")
	l.Info("points applied", UserID("u1"), XPDelta(150), EntityID("reward", "r1"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "points applied", entry.Message)
	assert.Equal(t, "ledger", entry.Fields["component"])
	assert.Equal(t, "u1", entry.Fields["user_id"])
	assert.Equal(t, float64(150), entry.Fields["xp_delta"])
	assert.Equal(t, "r1", entry.Fields["reward_id"])
}

func TestLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Format: ParseFormat("TEXT"), Level: LevelDebug})

	l.Warn("slow commit", String("b", "2"), String("a", "1"))

	out := buf.String()
	assert.Contains(t, out, " WARN slow commit a=1 b=2")
	assert.True(t, strings.HasSuffix(out, "\n"))
}

func TestLogger_WithDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf, Level: LevelInfo})
	_ = base.With(UserID("u1"))

	base.Info("plain")

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Empty(t, entry.Fields)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("loud"))
	assert.Equal(t, FormatJSON, ParseFormat(""))
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Output: &buf, Level: LevelInfo})
	ctx := WithContext(context.Background(), l)

	assert.Same(t, l, FromContext(ctx, nil))

	fallback := Nop()
	assert.Same(t, fallback, FromContext(context.Background(), fallback))
	assert.NotNil(t, FromContext(context.Background(), nil))
}

func TestEnabled(t *testing.T) {
	l := New(Options{Output: &bytes.Buffer{}, Level: LevelWarn})
	assert.False(t, l.Enabled(LevelInfo))
	assert.True(t, l.Enabled(LevelError))
	assert.False(t, Nop().Enabled(LevelError))
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error("dropped", Err(nil))
	})
}
