package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelInfo, true)
	SetOutput(&buf)

	Debug("hidden", "k", 1)
	assert.Empty(t, buf.String())

	Info("visible", "count", 3)
	assert.Contains(t, buf.String(), `"message":"visible"`)
	assert.Contains(t, buf.String(), `"count":3`)

	buf.Reset()
	SetLevel(LevelDebug)
	Debug("now shown")
	assert.Contains(t, buf.String(), "now shown")
}

func TestErrorCarriesErrAndDropsOddKV(t *testing.T) {
	var buf bytes.Buffer
	Configure(LevelInfo, true)
	SetOutput(&buf)

	Error("boom", errors.New("bad input"), "code", "R1", "dangling")
	out := buf.String()
	assert.Contains(t, out, `"error":"bad input"`)
	assert.Contains(t, out, `"code":"R1"`)
	assert.NotContains(t, out, "dangling")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}
