package dimmer

// Coalescer keeps only the most recent requested value between ticks.
type Coalescer struct {
	value   int
	pending bool
	dropped int
}

// Offer records v, replacing any value not yet taken.
func (c *Coalescer) Offer(v int) {
	if c.pending {
		c.dropped++
	}
	c.value = v
	c.pending = true
}

// Take returns the latest value once.
func (c *Coalescer) Take() (int, bool) {
	if !c.pending {
		return 0, false
	}
	c.pending = false
	return c.value, true
}

func (c *Coalescer) Pending() bool {
	return c.pending
}

// Dropped returns how many values were superseded since the last call and
// resets the count.
func (c *Coalescer) Dropped() int {
	n := c.dropped
	c.dropped = 0
	return n
}
