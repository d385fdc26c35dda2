// Package regalloc implements the frame-relative slot allocator the
// compiler uses while building each command's frame: a free-list over a
// monotonically growing high-water mark, so freed slots are reused before
// the frame is made any larger.
package regalloc

import "sort"

// Allocator tracks which frame slots are in use. Slot 0 is reserved by
// convention for the frame's implicit result and is never handed out by
// Allocate.
type Allocator struct {
	highWater int
	free      []int
}

// New returns an Allocator with slot 0 already reserved.
func New() *Allocator {
	return &Allocator{highWater: 0}
}

// Allocate returns the lowest currently-free slot, growing the frame if
// none is free.
func (a *Allocator) Allocate() int {
	if len(a.free) > 0 {
		slot := a.free[0]
		a.free = a.free[1:]
		return slot
	}
	a.highWater++
	return a.highWater
}

// Free releases slot back to the allocator for reuse.
func (a *Allocator) Free(slot int) {
	if slot == 0 {
		panic("regalloc: cannot free reserved slot 0")
	}
	i := sort.SearchInts(a.free, slot)
	a.free = append(a.free, 0)
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = slot
}

// FrameSize returns the number of slots the frame needs, including slot 0.
func (a *Allocator) FrameSize() int {
	return a.highWater + 1
}
