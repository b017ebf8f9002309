package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type buf struct {
	data []int
}

func (b *buf) Reset() { b.data = b.data[:0] }

func TestPoolResetsOnPut(t *testing.T) {
	p := New(func() *buf { return &buf{data: make([]int, 0, 4)} })

	b := p.Get()
	b.data = append(b.data, 1, 2, 3)
	p.Put(b)

	assert.Empty(t, b.data)
	assert.NotNil(t, p.Get())
}
