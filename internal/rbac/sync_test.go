package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDiffLinks(t *testing.T) {
	tests := []struct {
		name    string
		current []int64
		desired []int64
		add     []int64
		remove  []int64
	}{
		{
			name:    "identical sets change nothing",
			current: []int64{1, 2, 3},
			desired: []int64{3, 2, 1},
		},
		{
			name:    "disjoint sets swap fully",
			current: []int64{1, 2},
			desired: []int64{3, 4},
			add:     []int64{3, 4},
			remove:  []int64{1, 2},
		},
		{
			name:    "overlap keeps the intersection untouched",
			current: []int64{1, 2, 3},
			desired: []int64{2, 3, 4},
			add:     []int64{4},
			remove:  []int64{1},
		},
		{
			name:    "empty desired removes everything",
			current: []int64{1, 2},
			remove:  []int64{1, 2},
		},
		{
			name:    "empty current adds everything",
			desired: []int64{1, 2},
			add:     []int64{1, 2},
		},
		{
			name:    "duplicates in desired collapse",
			current: []int64{1},
			desired: []int64{1, 2, 2, 2},
			add:     []int64{2},
		},
		{
			name: "both empty",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			add, remove := diffLinks(tc.current, tc.desired)
			require.ElementsMatch(t, tc.add, add)
			require.ElementsMatch(t, tc.remove, remove)
		})
	}
}
