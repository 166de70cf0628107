package party

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewSetSortsAndDedupes(t *testing.T) {
	s := NewSet(3, 1, 2, 1, 3)
	require.Equal(t, Set{1, 2, 3}, s)
}

func TestRange(t *testing.T) {
	require.Equal(t, Set{1, 2, 3, 4, 5}, Range(1, 5))
	require.Equal(t, Set{}, Range(5, 1))
}

func TestWithout(t *testing.T) {
	s := Range(1, 5)
	others := s.Without(3)
	require.Equal(t, Set{1, 2, 4, 5}, others)
	require.False(t, others.Contains(3))
	require.True(t, others.Contains(1))
}
