package cruces

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(nodes []*TreeNode) []uint {
	out := make([]uint, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func TestBuildTree(t *testing.T) {
	nodes := []Tipo{
		{ID: 1},
		{ID: 2, ParentID: uintPtr(1)},
		{ID: 3, ParentID: uintPtr(1)},
		{ID: 4, ParentID: uintPtr(2)},
		{ID: 5},
	}

	forest := BuildTree(nodes)
	require.Equal(t, []uint{1, 5}, ids(forest))
	assert.Equal(t, []uint{2, 3}, ids(forest[0].Children))
	assert.Equal(t, []uint{4}, ids(forest[0].Children[0].Children))
	assert.Empty(t, forest[1].Children)
}

func TestBuildTreeSurvivesCorruptInput(t *testing.T) {
	nodes := []Tipo{
		{ID: 1},
		{ID: 2, ParentID: uintPtr(1)},
		{ID: 2, ParentID: uintPtr(1)},
		{ID: 3, ParentID: uintPtr(4)},
		{ID: 4, ParentID: uintPtr(3)},
		{ID: 6, ParentID: uintPtr(99)},
	}

	forest := BuildTree(nodes)
	require.Equal(t, []uint{1}, ids(forest))
	assert.Equal(t, []uint{2}, ids(forest[0].Children))
}

func TestBuildTreeEmpty(t *testing.T) {
	assert.Empty(t, BuildTree(nil))
}

func TestNestIntervals(t *testing.T) {
	nodes := []Tipo{
		{ID: 1},
		{ID: 2, ParentID: uintPtr(1)},
		{ID: 3, ParentID: uintPtr(2)},
		{ID: 4},
	}

	got := nestIntervals(nodes, 0)
	assert.Equal(t, map[uint]interval{
		1: {1, 6},
		2: {2, 5},
		3: {3, 4},
		4: {7, 8},
	}, got)
}

func TestNestIntervalsPlacesLastIDAfterSiblings(t *testing.T) {
	nodes := []Tipo{
		{ID: 1},
		{ID: 2, ParentID: uintPtr(1)},
		{ID: 3, ParentID: uintPtr(1)},
		{ID: 4, ParentID: uintPtr(1)},
	}

	got := nestIntervals(nodes, 2)
	assert.Equal(t, interval{2, 3}, got[3])
	assert.Equal(t, interval{4, 5}, got[4])
	assert.Equal(t, interval{6, 7}, got[2])
	assert.Equal(t, interval{1, 8}, got[1])
}

func TestNestIntervalsNumbersEveryNode(t *testing.T) {
	nodes := []Tipo{
		{ID: 1},
		{ID: 2, ParentID: uintPtr(3)},
		{ID: 3, ParentID: uintPtr(2)},
		{ID: 4, ParentID: uintPtr(42)},
	}

	got := nestIntervals(nodes, 0)
	require.Len(t, got, len(nodes))

	var bounds []int
	for _, iv := range got {
		assert.Less(t, iv.Left, iv.Right)
		bounds = append(bounds, iv.Left, iv.Right)
	}
	sort.Ints(bounds)
	for i, b := range bounds {
		assert.Equal(t, i+1, b)
	}
	assert.Equal(t, interval{3, 4}, got[4], "unknown parent is numbered as a root")
}
