package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToDMX(t *testing.T) {
	t.Parallel()

	require.Equal(t, byte(0), ToDMX(-1))
	require.Equal(t, byte(128), ToDMX(0.5))
	require.Equal(t, byte(255), ToDMX(2))
}
