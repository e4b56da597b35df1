package parallel

import "sync/atomic"

// cursor is the shared "next unit" counter over [start, end).
// The value never decreases; claims past end are how workers learn the range is done.
type cursor struct {
	next atomic.Int64
	end  int64
}

func newCursor(start, end int) *cursor {
	c := &cursor{end: int64(end)}
	c.next.Store(int64(start))
	return c
}

// claim returns the next unit and whether it is inside the range.
func (c *cursor) claim() (int, bool) {
	i := c.next.Add(1) - 1
	return int(i), i < c.end
}

// halt moves the cursor to end so no worker claims another unit.
// A CAS loop keeps the value monotonic when other workers already overshot end.
func (c *cursor) halt() {
	for {
		cur := c.next.Load()
		if cur >= c.end {
			return
		}
		if c.next.CompareAndSwap(cur, c.end) {
			return
		}
	}
}

// position returns the cursor clamped to end.
func (c *cursor) position() int64 {
	return min(c.next.Load(), c.end)
}

func (c *cursor) exhausted() bool {
	return c.next.Load() >= c.end
}
