// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZap(t *testing.T) {
	t.Run("With unknown level falls back to debug", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(42, buffer)
		require.Equal(t, DebugLevel, logger.LogLevel())

		logger.Debug("test debug")
		require.NoError(t, logger.Flush())

		entry := decodeEntry(t, buffer.Bytes())
		assert.Equal(t, "test debug", entry["msg"])
		assert.Equal(t, DebugLevel.String(), entry["level"])
	})
	t.Run("With info level drops debug entries", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Debug("hidden")
		logger.Infof("hello %s", "world")

		entry := decodeEntry(t, buffer.Bytes())
		assert.Equal(t, "hello world", entry["msg"])
		assert.Equal(t, InfoLevel.String(), entry["level"])
	})
	t.Run("With warn level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(WarningLevel, buffer)
		logger.Info("hidden")
		logger.Warn("careful")

		entry := decodeEntry(t, buffer.Bytes())
		assert.Equal(t, "careful", entry["msg"])
		assert.Equal(t, WarningLevel, logger.LogLevel())
	})
	t.Run("With panic", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(PanicLevel, buffer)
		assert.Panics(t, func() { logger.Panicf("boom %d", 1) })
	})
	t.Run("With structured fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("broker", "calc", "instance", 2, "cause", errors.New("oops"), "dangling").Info("started")

		entry := decodeEntry(t, buffer.Bytes())
		assert.Equal(t, "calc", entry["broker"])
		assert.EqualValues(t, 2, entry["instance"])
		assert.Equal(t, "oops", entry["cause"])
		assert.Equal(t, "dangling", entry["_"])
	})
	t.Run("With no fields returns the same logger", func(t *testing.T) {
		logger := NewZap(InfoLevel, io.Discard)
		assert.Same(t, logger, logger.With())
	})
	t.Run("With outputs", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		require.Len(t, logger.LogOutput(), 1)
		require.NotNil(t, logger.StdLogger())
	})
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger
	logger.Info("nothing")
	logger.Errorf("nothing %d", 1)
	assert.Equal(t, InfoLevel, logger.LogLevel())
	assert.Equal(t, DiscardLogger, logger.With("k", "v"))
	assert.Equal(t, []io.Writer{io.Discard}, logger.LogOutput())
	assert.Panics(t, func() { logger.Panic("boom") })
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", InfoLevel.String())
	assert.Equal(t, "warn", WarningLevel.String())
	assert.Equal(t, "invalid", Level(-1).String())
	assert.Equal(t, "invalid", Level(99).String())
}

func decodeEntry(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &entry))
	return entry
}
