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
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZap(t *testing.T) {
	t.Run("With debug level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(DebugLevel, buffer)
		require.Equal(t, DebugLevel, logger.LogLevel())

		logger.Debug("test debug")
		require.NoError(t, logger.Flush())

		msg, err := extractField(buffer.Bytes(), "msg")
		require.NoError(t, err)
		assert.Equal(t, "test debug", msg)

		lvl, err := extractField(buffer.Bytes(), "level")
		require.NoError(t, err)
		assert.Equal(t, DebugLevel.String(), lvl)
	})
	t.Run("With unknown level falls back to debug", func(t *testing.T) {
		logger := NewZap(Level(42), new(bytes.Buffer))
		assert.Equal(t, DebugLevel, logger.LogLevel())
	})
	t.Run("With info level filters debug", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)

		logger.Debug("hidden")
		assert.Empty(t, buffer.Bytes())
		assert.False(t, logger.Enabled(DebugLevel))
		assert.True(t, logger.Enabled(ErrorLevel))

		logger.Infof("node %d ready", 5)
		msg, err := extractField(buffer.Bytes(), "msg")
		require.NoError(t, err)
		assert.Equal(t, "node 5 ready", msg)
	})
	t.Run("With warn level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(WarningLevel, buffer)
		logger.Info("hidden")
		assert.Empty(t, buffer.Bytes())

		logger.Warnf("borrowed %ds", 30)
		lvl, err := extractField(buffer.Bytes(), "level")
		require.NoError(t, err)
		assert.Equal(t, WarningLevel.String(), lvl)
		assert.Equal(t, WarningLevel, logger.LogLevel())
	})
	t.Run("With error level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(ErrorLevel, buffer)
		logger.Warn("hidden")
		assert.Empty(t, buffer.Bytes())

		logger.Error("boom")
		msg, err := extractField(buffer.Bytes(), "msg")
		require.NoError(t, err)
		assert.Equal(t, "boom", msg)
	})
	t.Run("With panic", func(t *testing.T) {
		logger := NewZap(PanicLevel, new(bytes.Buffer))
		assert.Equal(t, PanicLevel, logger.LogLevel())
		assert.Panics(t, func() { logger.Panic("test panic") })
		assert.Panics(t, func() { logger.Panicf("test %s", "panic") })
	})
	t.Run("With fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.With("actor", "1/0-7", 42, "skipped", "node", 7, "orphan").Info("started")

		var entry map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(buffer.Bytes(), &entry))
		assert.Contains(t, entry, "actor")
		assert.Contains(t, entry, "node")
		assert.Contains(t, entry, "_")
		assert.Equal(t, logger, logger.With())
	})
	t.Run("With file output", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "runtime.log")
		file, err := os.Create(path)
		require.NoError(t, err)

		logger := NewZap(InfoLevel, file)
		logger.Info("buffered")
		require.NoError(t, logger.Flush())
		require.NoError(t, file.Close())

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		msg, err := extractField(content, "msg")
		require.NoError(t, err)
		assert.Equal(t, "buffered", msg)
	})
	t.Run("With outputs and std logger", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		require.Len(t, logger.LogOutput(), 1)

		logger.StdLogger().Print("from std")
		msg, err := extractField(buffer.Bytes(), "msg")
		require.NoError(t, err)
		assert.Equal(t, "from std", msg)
	})
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger
	logger.Debug("x")
	logger.Infof("%s", "x")
	logger.Warn("x")
	logger.Errorf("%s", "x")
	assert.Equal(t, InfoLevel, logger.LogLevel())
	assert.False(t, logger.Enabled(ErrorLevel))
	assert.True(t, logger.Enabled(PanicLevel))
	assert.Equal(t, DiscardLogger, logger.With("k", "v"))
	assert.NotNil(t, logger.StdLogger())
	assert.Len(t, logger.LogOutput(), 1)
	assert.NoError(t, logger.Flush())
	assert.Panics(t, func() { logger.Panicf("%s", "boom") })
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "info", InfoLevel.String())
	assert.Equal(t, "warn", WarningLevel.String())
	assert.Equal(t, "invalid", InvalidLevel.String())
	assert.Equal(t, "invalid", Level(-1).String())
}

func extractField(raw []byte, key string) (string, error) {
	line := raw
	if idx := bytes.IndexByte(raw, '\n'); idx >= 0 {
		line = raw[:idx]
	}

	entry := make(map[string]json.RawMessage)
	if err := json.Unmarshal(line, &entry); err != nil {
		return "", err
	}
	value, ok := entry[key]
	if !ok {
		return "", nil
	}
	return strconv.Unquote(string(value))
}
