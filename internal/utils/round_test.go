package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundIfIntegral(t *testing.T) {
	assert := require.New(t)

	v, ok := RoundIfIntegral(3.0000000001, 1e-8)
	assert.True(ok)
	assert.Equal(3.0, v)

	v, ok = RoundIfIntegral(-2.9999999999, 1e-8)
	assert.True(ok)
	assert.Equal(-3.0, v)

	_, ok = RoundIfIntegral(3.4, 1e-8)
	assert.False(ok)

	// zero tolerance disables snapping and reports the raw value as-is
	v, ok = RoundIfIntegral(3.4, 0)
	assert.False(ok)
	assert.Equal(3.4, v)
}
