package ctxlog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromContext_ReturnsEmbeddedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", "text", &buf)
	ctx := WithLogger(context.Background(), logger)

	FromContext(ctx).Debug("resolving classpath", "entries", 3)

	assert.Contains(t, buf.String(), "resolving classpath")
	assert.Contains(t, buf.String(), "entries=3")
}

func TestFromContext_DiscardsWithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		FromContext(context.Background()).Error("dropped")
	})
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New("info", "json", &buf).Info("task finished", "task", "build")
	assert.Contains(t, buf.String(), `"task":"build"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("info"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("loud"))
}
