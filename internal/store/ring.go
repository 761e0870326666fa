package store

// ring is the persisted header of a fixed-capacity event history. Head is
// the slot of the oldest event; Len is the number of occupied slots.
type ring struct {
	Head uint32 `json:"head"`
	Len  uint32 `json:"len"`
}

// push returns the slot the next event goes into and the advanced header.
// Once full, the oldest slot is reused.
func (r ring) push(capacity uint32) (uint32, ring) {
	if r.Len < capacity {
		return (r.Head + r.Len) % capacity, ring{Head: r.Head, Len: r.Len + 1}
	}
	return r.Head, ring{Head: (r.Head + 1) % capacity, Len: r.Len}
}

// slots lists occupied slots from oldest to newest.
func (r ring) slots(capacity uint32) []uint32 {
	out := make([]uint32, 0, r.Len)
	for i := uint32(0); i < r.Len; i++ {
		out = append(out, (r.Head+i)%capacity)
	}
	return out
}
