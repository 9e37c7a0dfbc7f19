package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")
	logger.Info("dropped")
	logger.Warn("kept", "k", "v")

	out := buf.String()
	require.NotContains(t, out, "dropped")
	require.Contains(t, out, `"msg":"kept"`)

	buf.Reset()
	logger = newLogger(&buf, "not-a-level", "text")
	logger.Info("hello")
	require.Contains(t, buf.String(), "msg=hello")
}
