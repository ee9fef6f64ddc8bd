package vm

// ---------------------------------------------------------------------------
// Builtin Object class
// ---------------------------------------------------------------------------

// NewObjectClass creates the builtin Object class, the universal base
// type. It answers toString with the receiver's class name.
func (h *Heap) NewObjectClass() *BuiltinClass {
	object := h.NewBuiltinClass("Object")
	h.Push(ObjVal(object))
	h.DefineBuiltinMethod(object, "toString", objectToString)
	h.Pop()
	return object
}

// objectToString returns the interned name of the receiver's class. Any
// argument is an arity error. Receivers that are not instances get their
// plain textual form.
func objectToString(h *Heap, receiver Value, args []Value) Value {
	if len(args) > 0 {
		return NoValue
	}
	if inst, ok := As[*Instance](h, receiver); ok {
		return ObjVal(inst.Class.Name)
	}
	return ObjVal(h.ToString(receiver))
}
