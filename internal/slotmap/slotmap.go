// Package slotmap implements a generation-checked ID registry with deferred
// destruction.
//
// IDs are never zero. An ID stays valid until Remove, after which the value
// moves to a pending queue; it is only released by Drain, typically at the
// start of the next frame once the GE can no longer read it. A slot is
// reused with a new generation, so stale IDs never resolve to a new value.
package slotmap

// ID identifies a value in a Map: slot index + 1 in the low 16 bits and the
// slot generation above.
type ID uint32

const indexBits = 16

// MaxSlots is the largest capacity a Map can have.
const MaxSlots = 1<<indexBits - 1

func makeID(index int, gen uint16) ID {
	return ID(uint32(gen)<<indexBits | uint32(index+1))
}

// Index returns the slot index of id, or -1 for the zero ID.
func (id ID) Index() int {
	return int(id&(1<<indexBits-1)) - 1
}

func (id ID) gen() uint16 {
	return uint16(id >> indexBits)
}

// State is the lifecycle state of an ID.
type State uint8

const (
	// Unknown IDs were never issued, or their slot has been reused.
	Unknown State = iota
	// Live IDs resolve with Get.
	Live
	// Pending IDs were removed and await Drain.
	Pending
)

type slot[T any] struct {
	gen   uint16
	state State
	val   T
}

// Map stores values of type T under IDs. It is not safe for concurrent use.
type Map[T any] struct {
	slots   []slot[T]
	free    []int
	pending []int
	limit   int
}

// New returns an empty map holding at most limit live or pending values.
func New[T any](limit int) *Map[T] {
	if limit <= 0 || limit > MaxSlots {
		limit = MaxSlots
	}
	return &Map[T]{limit: limit}
}

// Insert stores v under a new ID. ok is false when the map is full.
func (m *Map[T]) Insert(v T) (id ID, ok bool) {
	var i int
	switch {
	case len(m.free) > 0:
		i = m.free[len(m.free)-1]
		m.free = m.free[:len(m.free)-1]
	case len(m.slots) < m.limit:
		i = len(m.slots)
		m.slots = append(m.slots, slot[T]{})
	default:
		return 0, false
	}
	s := &m.slots[i]
	s.state, s.val = Live, v
	return makeID(i, s.gen), true
}

func (m *Map[T]) slot(id ID) *slot[T] {
	i := id.Index()
	if i < 0 || i >= len(m.slots) || m.slots[i].gen != id.gen() {
		return nil
	}
	return &m.slots[i]
}

// State returns the lifecycle state of id.
func (m *Map[T]) State(id ID) State {
	if s := m.slot(id); s != nil {
		return s.state
	}
	return Unknown
}

// InRange reports whether id addresses a slot the map could ever hold.
func (m *Map[T]) InRange(id ID) bool {
	i := id.Index()
	return i >= 0 && i < m.limit
}

// Get returns a pointer to the value of a live ID.
func (m *Map[T]) Get(id ID) (*T, bool) {
	s := m.slot(id)
	if s == nil || s.state != Live {
		return nil, false
	}
	return &s.val, true
}

// Set replaces the value of a live ID.
func (m *Map[T]) Set(id ID, v T) bool {
	p, ok := m.Get(id)
	if ok {
		*p = v
	}
	return ok
}

// Remove marks a live ID for destruction. The value stays reachable through
// Drain only.
func (m *Map[T]) Remove(id ID) bool {
	s := m.slot(id)
	if s == nil || s.state != Live {
		return false
	}
	s.state = Pending
	m.pending = append(m.pending, id.Index())
	return true
}

// Drain calls destroy for every pending value in removal order and frees
// their slots. destroy may be nil.
func (m *Map[T]) Drain(destroy func(T)) int {
	n := len(m.pending)
	for _, i := range m.pending {
		s := &m.slots[i]
		if destroy != nil {
			destroy(s.val)
		}
		var zero T
		s.val, s.state = zero, Unknown
		s.gen++
		m.free = append(m.free, i)
	}
	m.pending = m.pending[:0]
	return n
}

// Len returns the number of live values.
func (m *Map[T]) Len() int {
	return len(m.slots) - len(m.free) - len(m.pending)
}

// Available returns how many more values Insert can store before the
// pending ones are drained.
func (m *Map[T]) Available() int {
	return m.limit - m.Len() - len(m.pending)
}

// PendingLen returns the number of values awaiting Drain.
func (m *Map[T]) PendingLen() int {
	return len(m.pending)
}

// All calls fn for every live value until fn returns false.
func (m *Map[T]) All(fn func(ID, *T) bool) {
	for i := range m.slots {
		s := &m.slots[i]
		if s.state == Live && !fn(makeID(i, s.gen), &s.val) {
			return
		}
	}
}
