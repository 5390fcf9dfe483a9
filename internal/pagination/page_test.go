package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecord_HasMoreFromRawFetch(t *testing.T) {
	p := New[int](3)
	assert.True(t, p.HasMore)

	// full raw page, but filtering hid two rows
	p.Record(3, 3, []int{1})
	assert.True(t, p.HasMore)
	assert.Equal(t, 3, p.Offset)
	assert.Equal(t, []int{1}, p.Items)

	p.Record(2, 2, []int{4, 5})
	assert.False(t, p.HasMore)
	assert.Equal(t, 5, p.Offset)
	assert.Equal(t, []int{1, 4, 5}, p.Items)
}

func TestReset(t *testing.T) {
	p := New[string](2)
	p.Record(1, 1, []string{"a"})
	p.Reset(5)

	assert.Empty(t, p.Items)
	assert.Equal(t, 0, p.Offset)
	assert.Equal(t, 5, p.PageSize)
	assert.True(t, p.HasMore)
}

func TestSnapshot_IsIndependent(t *testing.T) {
	p := New[int](2)
	p.Record(2, 2, []int{1, 2})
	snap := p.Snapshot()
	p.Items[0] = 99

	assert.Equal(t, []int{1, 2}, snap.Items)
}

func TestFilter(t *testing.T) {
	even := Filter([]int{1, 2, 3, 4}, func(v int) bool { return v%2 == 0 })
	assert.Equal(t, []int{2, 4}, even)
	assert.Empty(t, Filter([]int{}, func(int) bool { return true }))
}
