package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemove(t *testing.T) {
	t.Run("removes only the first occurrence", func(t *testing.T) {
		got, ok := Remove([]string{"Shield", "Bomb", "Shield"}, "Shield")
		require.True(t, ok)
		require.Equal(t, []string{"Bomb", "Shield"}, got, "Insertion order should be kept")
	})

	t.Run("missing item", func(t *testing.T) {
		got, ok := Remove([]string{"Bomb"}, "Shield")
		require.False(t, ok)
		require.Equal(t, []string{"Bomb"}, got)
	})
}

func TestClamp(t *testing.T) {
	require.Equal(t, 1, Clamp(-3, 1, 100))
	require.Equal(t, 100, Clamp(104, 1, 100))
	require.Equal(t, 42, Clamp(42, 1, 100))
}
