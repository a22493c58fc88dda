package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"InkBoard/internal/logging"
)

func TestStartupErrorsUseConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(newLogger(&buf, "warn"))
	t.Cleanup(func() { logging.SetLogger(prev) })

	logging.Logger().Debug("hidden")
	logging.Logger().Error("board setup failed", "err", "boom")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "board setup failed")
	assert.Contains(t, buf.String(), "err=boom")
}
