package object

import "sync/atomic"

// DefaultIDBase is the first id handed out by NewIDAllocator(0). Lower ids are
// left to the subsystems that number roles, tablespaces, models and schemas.
const DefaultIDBase uint32 = 30000

// IDAllocator issues object ids that are unique within a session.
// It is safe for concurrent use.
type IDAllocator struct {
	next atomic.Uint32
}

// NewIDAllocator returns an allocator whose first id is base, or
// DefaultIDBase when base is zero.
func NewIDAllocator(base uint32) *IDAllocator {
	if base == 0 {
		base = DefaultIDBase
	}
	a := &IDAllocator{}
	a.next.Store(base)
	return a
}

// Next returns a fresh id.
func (a *IDAllocator) Next() uint32 {
	return a.next.Add(1) - 1
}

// Current returns the id the next call to Next will return.
func (a *IDAllocator) Current() uint32 {
	return a.next.Load()
}

// SwapIDs exchanges the ids of a and b in place without touching the
// allocator. Swapping an object with itself does nothing.
func SwapIDs(a, b *Object) error {
	if a == nil || b == nil {
		return ErrNullArgument
	}
	if a != b {
		a.id, b.id = b.id, a.id
	}
	return nil
}
