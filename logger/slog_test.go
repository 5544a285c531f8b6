package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlog_JSONOutput(t *testing.T) {
	require := require.New(t)
	t.Setenv("ENV", "production")

	var out bytes.Buffer
	l := NewSlogWithWriter(&out, InfoLevel, false)
	require.Equal(InfoLevel, l.Level())

	l.Debug("dropped")
	require.Zero(out.Len())

	l.With("id", "c1").Info("connection accepted", "remote", "127.0.0.1:5000")

	var record map[string]any
	require.NoError(json.Unmarshal(out.Bytes(), &record))
	require.Equal("connection accepted", record["msg"])
	require.Equal("c1", record["id"])
	require.Equal("127.0.0.1:5000", record["remote"])
	require.Contains(record, "ts")

	l.SetLevel(DebugLevel)
	require.Equal(DebugLevel, l.Level())
}

func TestParseLevel(t *testing.T) {
	require := require.New(t)

	for name, expected := range map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		"":        InfoLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"fatal":   FatalLevel,
	} {
		level, err := ParseLevel(name)
		require.NoError(err, name)
		require.Equal(expected, level, name)
	}

	_, err := ParseLevel("verbose")
	require.Error(err)
}

func TestSetLogger(t *testing.T) {
	require := require.New(t)

	prev := GetLogger()
	defer SetLogger(prev)

	mockLogger := NewMockLogger()
	mockLogger.On("Info", "hello", []any{"k", 1}).Once()

	SetLogger(mockLogger)
	SetLogger(nil)
	Info("hello", "k", 1)

	mockLogger.AssertExpectations(t)
	require.Same(mockLogger, GetLogger())
}
