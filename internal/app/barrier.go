package app

// Barrier gates progression on acknowledgements from a fixed set of
// participants. Once every expected participant has acked, the barrier
// releases and resets itself for the next round of the same checkpoint.
// Duplicate acks from the same participant are idempotent.
type Barrier struct {
	expected int
	acked    map[string]struct{}
}

// NewBarrier returns a barrier expecting acks from the given number of
// distinct participants.
func NewBarrier(expected int) *Barrier {
	return &Barrier{
		expected: expected,
		acked:    make(map[string]struct{}, expected),
	}
}

// Ack records an acknowledgement and reports whether the barrier released on
// this call. On release the barrier resets, ready for reuse.
func (b *Barrier) Ack(id string) bool {
	b.acked[id] = struct{}{}
	if len(b.acked) < b.expected {
		return false
	}
	b.acked = make(map[string]struct{}, b.expected)
	return true
}

// Pending reports how many acknowledgements are still outstanding.
func (b *Barrier) Pending() int {
	return b.expected - len(b.acked)
}

// Reset discards collected acknowledgements without releasing.
func (b *Barrier) Reset() {
	b.acked = make(map[string]struct{}, b.expected)
}
