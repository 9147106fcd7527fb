package dimmer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalescer_LastValueWins(t *testing.T) {
	var c Coalescer
	for _, v := range []int{40, 42, 41, 39} {
		c.Offer(v)
	}

	v, ok := c.Take()
	assert.True(t, ok)
	assert.Equal(t, 39, v)
	assert.Equal(t, 3, c.Dropped())

	_, ok = c.Take()
	assert.False(t, ok)
	assert.Equal(t, 0, c.Dropped())
}

func TestCoalescer_Empty(t *testing.T) {
	var c Coalescer
	assert.False(t, c.Pending())
	_, ok := c.Take()
	assert.False(t, ok)
}
