package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNotNil(t *testing.T) {
	require.NotPanics(t, func() { NotNil(1, "value") })
	require.PanicsWithValue(t, "expected client to be not nil", func() { NotNil(nil, "client") })
}

func TestPositive(t *testing.T) {
	require.NotPanics(t, func() { Positive(1, "total") })
	require.PanicsWithValue(t, "expected total to be positive, got 0", func() { Positive(0, "total") })
}
