package vm

// ---------------------------------------------------------------------------
// Functions and closures
// ---------------------------------------------------------------------------

// NewFunction creates a function with no name, zero arity, no captures and
// an empty chunk. The compiler fills it in.
func (h *Heap) NewFunction() *Function {
	fn := &Function{}
	h.allocate(fn, TypeFunction)
	return fn
}

// NewClosure creates a closure over fn with one empty upvalue slot per
// captured variable. The execution loop fills the slots. fn must be
// reachable for the duration of the call.
func (h *Heap) NewClosure(fn *Function) *Closure {
	h.reallocate(0, fn.UpvalueCount*pointerSize)
	upvalues := make([]*Upvalue, fn.UpvalueCount)

	closure := &Closure{Function: fn, Upvalues: upvalues}
	h.allocate(closure, TypeClosure)
	return closure
}

// ---------------------------------------------------------------------------
// Upvalues
// ---------------------------------------------------------------------------

// NewUpvalue creates an open upvalue over stack slot slot.
func (h *Heap) NewUpvalue(slot int) *Upvalue {
	uv := &Upvalue{stack: h.stack, slot: slot, closed: Nil}
	h.allocate(uv, TypeUpvalue)
	return uv
}

// IsOpen reports whether u still aliases a stack slot.
func (u *Upvalue) IsOpen() bool {
	return u.stack != nil
}

// Slot returns the stack slot u aliases while open.
func (u *Upvalue) Slot() int {
	return u.slot
}

// Get returns the captured variable's current value.
func (u *Upvalue) Get() Value {
	if u.stack != nil {
		return u.stack.Slot(u.slot)
	}
	return u.closed
}

// Set assigns the captured variable.
func (u *Upvalue) Set(v Value) {
	if u.stack != nil {
		u.stack.SetSlot(u.slot, v)
		return
	}
	u.closed = v
}

// Close copies the slot's current value into the upvalue and detaches it
// from the stack. Later writes to the slot are not observed. Close does not
// allocate.
func (u *Upvalue) Close() {
	if u.stack == nil {
		return
	}
	u.closed = u.stack.Slot(u.slot)
	u.stack = nil
}

// CaptureUpvalue returns the open upvalue for slot, creating it if no
// closure has captured that slot yet. Closures capturing the same variable
// share one upvalue.
func (h *Heap) CaptureUpvalue(slot int) *Upvalue {
	var prev *Upvalue
	uv := h.openUpvalues
	for uv != nil && uv.slot > slot {
		prev = uv
		uv = uv.Next
	}
	if uv != nil && uv.slot == slot {
		return uv
	}

	created := h.NewUpvalue(slot)
	created.Next = uv
	if prev == nil {
		h.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// CloseUpvalues closes every open upvalue at or above lastSlot, deepest
// first. It must run before the stack is truncated to lastSlot.
func (h *Heap) CloseUpvalues(lastSlot int) {
	for h.openUpvalues != nil && h.openUpvalues.slot >= lastSlot {
		uv := h.openUpvalues
		uv.Close()
		h.openUpvalues = uv.Next
		uv.Next = nil
	}
}

// OpenUpvalueCount returns the length of the open upvalue list.
func (h *Heap) OpenUpvalueCount() int {
	n := 0
	for uv := h.openUpvalues; uv != nil; uv = uv.Next {
		n++
	}
	return n
}
