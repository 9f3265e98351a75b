package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSlogLevels(t *testing.T) {
	l := NewSlog(DebugLevel, false)
	assert.Equal(t, DebugLevel, l.Level())

	l.SetLevel(WarnLevel)
	assert.Equal(t, WarnLevel, l.Level())

	l.SetLevel(ErrorLevel)
	assert.Equal(t, ErrorLevel, l.Level())
}

func TestSlogWithSharesLevel(t *testing.T) {
	l := NewSlog(InfoLevel, false)
	child := l.With("component", "transport")
	require.NotNil(t, child)

	l.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, child.Level())
}

func TestDefaultLogger(t *testing.T) {
	l := GetLogger()
	require.NotNil(t, l)

	SetLevel(WarnLevel)
	assert.Equal(t, WarnLevel, l.Level())

	SetLevel(InfoLevel)
}

func TestMockLogger(t *testing.T) {
	m := NewMockLogger()
	m.On("Info", "connected", []any{"port", "/dev/ttyUSB0"}).Once()

	m.Info("connected", "port", "/dev/ttyUSB0")
	m.AssertExpectations(t)
}
