package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel(" warning "))
	require.Equal(t, slog.LevelError, parseLevel("error"))
	require.Equal(t, slog.LevelInfo, parseLevel("verbose"))
}

func TestNewWithWriterFormats(t *testing.T) {
	t.Setenv("LOG_LEVEL", "info")

	var text bytes.Buffer
	t.Setenv("LOG_FORMAT", "")
	NewWithWriter("analyzer", &text).Info("hello")
	require.Contains(t, text.String(), "service=analyzer")

	var js bytes.Buffer
	t.Setenv("LOG_FORMAT", "json")
	NewWithWriter("analyzer", &js).Info("hello")
	require.Contains(t, js.String(), `"service":"analyzer"`)

	var quiet bytes.Buffer
	t.Setenv("LOG_LEVEL", "error")
	NewWithWriter("analyzer", &quiet).Info("dropped")
	require.Empty(t, quiet.String())
}
