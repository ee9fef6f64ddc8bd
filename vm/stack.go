package vm

// ---------------------------------------------------------------------------
// Stack: the value stack
// ---------------------------------------------------------------------------

// Stack is the interpreter's value stack. Every slot is a collector root,
// which is what makes Push/Pop usable as a rooting mechanism during
// multi-step object construction.
type Stack struct {
	slots []Value
}

// NewStack creates an empty stack with room for capacity values.
func NewStack(capacity int) *Stack {
	return &Stack{slots: make([]Value, 0, capacity)}
}

// Push appends v to the top of the stack.
func (s *Stack) Push(v Value) {
	s.slots = append(s.slots, v)
}

// Pop removes and returns the top value.
// Panics on an empty stack.
func (s *Stack) Pop() Value {
	n := len(s.slots)
	if n == 0 {
		panic("Stack.Pop: stack underflow")
	}
	v := s.slots[n-1]
	s.slots = s.slots[:n-1]
	return v
}

// Peek returns the value distance slots below the top without removing it.
// Peek(0) is the top.
func (s *Stack) Peek(distance int) Value {
	return s.slots[len(s.slots)-1-distance]
}

// Len returns the number of values on the stack.
func (s *Stack) Len() int {
	return len(s.slots)
}

// Slot returns the value at absolute index i.
func (s *Stack) Slot(i int) Value {
	return s.slots[i]
}

// SetSlot stores v at absolute index i.
func (s *Stack) SetSlot(i int, v Value) {
	s.slots[i] = v
}

// Truncate drops every value at or above index n. Callers close the
// upvalues of those slots first.
func (s *Stack) Truncate(n int) {
	s.slots = s.slots[:n]
}

// ForEach calls fn for each value from the bottom of the stack up.
func (s *Stack) ForEach(fn func(index int, v Value)) {
	for i, v := range s.slots {
		fn(i, v)
	}
}
