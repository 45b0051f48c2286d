package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jslick/matrixvm/assert"
)

func TestLoggerOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithConfig(Config{
		Level:      InfoLevel,
		Output:     &buf,
		TimeFormat: "-",
	})

	logger.Info("machine started", String("device", "timer"), Int("port", 1))
	logger.Debug("not printed")

	out := buf.String()
	assert.True(t, strings.Contains(out, "INFO"), "output: %s", out)
	assert.True(t, strings.Contains(out, "machine started"), "output: %s", out)
	assert.True(t, strings.Contains(out, "device=timer"), "output: %s", out)
	assert.True(t, strings.Contains(out, "port=1"), "output: %s", out)
	assert.False(t, strings.Contains(out, "not printed"), "output: %s", out)
}

func TestLoggerSetLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithConfig(Config{
		Level:      ErrorLevel,
		Output:     &buf,
		TimeFormat: "-",
	})

	logger.Warn("dropped")
	logger.SetLevel(TraceLevel)
	logger.Trace("kept")

	out := buf.String()
	assert.False(t, strings.Contains(out, "dropped"))
	assert.True(t, strings.Contains(out, "kept"))
}

func TestHexField(t *testing.T) {
	t.Parallel()

	f := Hex("word", int32(0x30410000))
	assert.Equal(t, "0x30410000", f.Value.String())
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, ok := ParseLevel("debug")
	assert.True(t, ok)
	assert.Equal(t, DebugLevel, level)

	_, ok = ParseLevel("bogus")
	assert.False(t, ok)
}
