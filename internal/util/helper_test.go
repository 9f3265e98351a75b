package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloats(t *testing.T) {
	values, err := ParseFloats([]string{"1.5", "-0.25", "100"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -0.25, 100}, values)
}

func TestParseFloatsEmpty(t *testing.T) {
	values, err := ParseFloats(nil)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestParseFloatsInvalid(t *testing.T) {
	_, err := ParseFloats([]string{"1.5", "abc"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "abc")
}
