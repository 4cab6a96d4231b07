package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolGenerates(t *testing.T) {
	calls := 0
	p := NewPool(func() int {
		calls++
		return 42
	})
	assert.Equal(t, 42, p.Get())
	assert.Equal(t, 1, calls)
}

func TestSlicePoolReturnsEmptySlices(t *testing.T) {
	p := NewSlicePool[int](8)
	s := p.Get()
	assert.Empty(t, *s)
	assert.GreaterOrEqual(t, cap(*s), 8)

	*s = append(*s, 1, 2, 3)
	p.Put(s)

	again := p.Get()
	assert.Empty(t, *again)
}
