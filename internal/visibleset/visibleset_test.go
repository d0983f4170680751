package visibleset

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCap_BoundsRenderedItemsButKeepsTotal(t *testing.T) {
	chains := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		chains = append(chains, fmt.Sprintf("chain-%02d", i))
	}

	capped := Cap(chains, DefaultCap)
	require.Len(t, capped.Items, 16)
	require.Equal(t, 50, capped.Total)
	require.True(t, capped.Truncated)
	require.Equal(t, "chain-00", capped.Items[0])
	require.Equal(t, "chain-15", capped.Items[15])
	require.Len(t, chains, 50)
}

func TestCap_ShortListIsUntouched(t *testing.T) {
	capped := Cap([]int{3, 1, 2}, DefaultCap)
	require.Equal(t, []int{3, 1, 2}, capped.Items)
	require.Equal(t, 3, capped.Total)
	require.False(t, capped.Truncated)
}

func TestCap_OutputDoesNotAliasInput(t *testing.T) {
	in := []int{1, 2, 3}
	capped := Cap(in, 2)
	capped.Items[0] = 99
	require.Equal(t, 1, in[0])
}

func TestCap_NonPositiveLimit(t *testing.T) {
	capped := Cap([]int{1, 2}, -4)
	require.Empty(t, capped.Items)
	require.NotNil(t, capped.Items)
	require.Equal(t, 2, capped.Total)
	require.True(t, capped.Truncated)

	empty := Cap[int](nil, DefaultCap)
	require.Empty(t, empty.Items)
	require.False(t, empty.Truncated)
}
