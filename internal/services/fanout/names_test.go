package fanout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJoinNames(t *testing.T) {
	require.Equal(t, "", JoinNames(nil))
	require.Equal(t, "Anna", JoinNames([]string{"Anna"}))
	require.Equal(t, "Anna & Ben", JoinNames([]string{"Anna", "Ben"}))
	require.Equal(t, "Anna, Ben & Cara", JoinNames([]string{"Anna", "Ben", "Cara"}))
}

func TestExcludeName(t *testing.T) {
	names := []string{"Anna", "Ben", "Cara"}
	require.Equal(t, []string{"Anna", "Cara"}, ExcludeName(names, "Ben"))
	require.Equal(t, names, ExcludeName(names, "Dora"))
	require.Empty(t, ExcludeName([]string{"Anna"}, "Anna"))
}
