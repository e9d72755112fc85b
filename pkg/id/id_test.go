package id

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()
	assert.Len(t, a, 26)
	assert.NotEqual(t, a, b)
	// Monotonic entropy keeps same-millisecond ids sortable.
	assert.Less(t, a, b)
}

func TestGeneratorsAreIndependent(t *testing.T) {
	t.Parallel()

	g1 := NewGenerator()
	g2 := NewGenerator()
	assert.NotEqual(t, g1.New(), g2.New())

	prev := g1.New()
	for i := 0; i < 100; i++ {
		next := g1.New()
		assert.Less(t, prev, next)
		prev = next
	}
}
