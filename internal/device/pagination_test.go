package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name           string
		page, size     int
		wantPage, want int
	}{
		{"defaults", 0, 0, 1, 10},
		{"clamps oversize", 0, 500, 1, 100},
		{"negative", -3, -1, 1, 10},
		{"in range", 4, 25, 4, 25},
		{"max size", 1, 100, 1, 100},
		{"min size", 1, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.page, tt.size)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.want, p.Size)
		})
	}
}

func TestPagination_Skip(t *testing.T) {
	assert.Equal(t, 0, NewPagination(1, 10).Skip())
	assert.Equal(t, 40, NewPagination(5, 10).Skip())
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 2, ClampPage(5, 10, 12), "beyond the end clamps to the last page")
	assert.Equal(t, 1, ClampPage(0, 10, 12))
	assert.Equal(t, 1, ClampPage(3, 10, 0), "empty datasets use the first page")
	assert.Equal(t, 3, ClampPage(3, 10, 30))
	assert.Equal(t, 1, ClampPage(1, 0, 5))
}

func TestPage_Derived(t *testing.T) {
	p := NewPage([]int{1, 2}, 2, 2, 5)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasPrevious())
	assert.True(t, p.HasNext())

	last := NewPage([]int{5}, 3, 2, 5)
	assert.False(t, last.HasNext())

	empty := EmptyPage[int](NewPagination(4, 10))
	assert.Equal(t, 0, empty.TotalPages)
	assert.Equal(t, 1, empty.PageNumber)
	assert.False(t, empty.HasPrevious())
	assert.False(t, empty.HasNext())
	assert.NotNil(t, empty.Items)

	zeroSize := NewPage[int](nil, 1, 0, 3)
	assert.Equal(t, 0, zeroSize.TotalPages)
}

func TestMapPage(t *testing.T) {
	p := NewPage([]int{1, 2, 3}, 1, 3, 9)
	mapped := MapPage(p, func(i int) string { return string(rune('a' + i - 1)) })

	assert.Equal(t, []string{"a", "b", "c"}, mapped.Items)
	assert.Equal(t, p.TotalPages, mapped.TotalPages)
	assert.Equal(t, p.TotalCount, mapped.TotalCount)
}
