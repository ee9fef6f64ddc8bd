package vm

// ---------------------------------------------------------------------------
// Classes
// ---------------------------------------------------------------------------

// NewClass creates a class with an empty method table. name must be
// reachable for the duration of the call.
func (h *Heap) NewClass(name *String) *Class {
	c := &Class{Name: name}
	h.allocate(c, TypeClass)
	c.Methods = newTable(h)
	return c
}

// NewBuiltinClass creates the builtin class called name. The interned name
// stays rooted on the stack until the class that refers to it is linked.
func (h *Heap) NewBuiltinClass(name string) *BuiltinClass {
	nameStr := h.CopyString(name)
	h.Push(ObjVal(nameStr))

	c := &BuiltinClass{}
	h.allocate(c, TypeBuiltinClass)
	c.Name = nameStr
	c.Methods = newTable(h)

	h.Pop()
	return c
}

// IsBuiltin reports whether c was created by NewBuiltinClass.
func (c *Class) IsBuiltin() bool {
	return c.typ == TypeBuiltinClass
}

// DefineBuiltinMethod installs fn as the native method name on c. The name
// and the method wrapper stay rooted while the table insert may allocate.
func (h *Heap) DefineBuiltinMethod(c *BuiltinClass, name string, fn NativeMethodFn) {
	h.Push(ObjVal(h.CopyString(name)))
	h.Push(ObjVal(h.newNativeMethod(fn)))

	key, _ := As[*String](h, h.stack.Peek(1))
	c.Methods.Set(key, h.stack.Peek(0))

	h.Pop()
	h.Pop()
}

// DefineMethod installs method (a closure or native method value) as name
// on c. Both must be reachable.
func (c *Class) DefineMethod(name *String, method Value) {
	c.Methods.Set(name, method)
}

// FindMethod looks name up in c's own method table.
func (c *Class) FindMethod(name *String) (Value, bool) {
	return c.Methods.Get(name)
}

// ClassOf returns the class object held by v, whether plain or builtin.
func (h *Heap) ClassOf(v Value) (*Class, bool) {
	switch c := h.Deref(v).(type) {
	case *Class:
		return c, true
	case *BuiltinClass:
		return &c.Class, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Instances
// ---------------------------------------------------------------------------

// NewInstance creates an instance of c with no fields. c must be reachable
// for the duration of the call and must outlive the instance.
func (h *Heap) NewInstance(c *Class) *Instance {
	inst := &Instance{Class: c}
	h.allocate(inst, TypeInstance)
	inst.Fields = newTable(h)
	return inst
}

// GetField returns the field name of inst.
func (inst *Instance) GetField(name *String) (Value, bool) {
	return inst.Fields.Get(name)
}

// SetField assigns the field name, creating it on first assignment.
// Reports whether the field was new.
func (inst *Instance) SetField(name *String, v Value) bool {
	return inst.Fields.Set(name, v)
}

// ---------------------------------------------------------------------------
// Bound methods and natives
// ---------------------------------------------------------------------------

// NewBoundMethod binds method to receiver. Both must be reachable.
func (h *Heap) NewBoundMethod(receiver Value, method *Closure) *BoundMethod {
	bm := &BoundMethod{Receiver: receiver, Method: method}
	h.allocate(bm, TypeBoundMethod)
	return bm
}

// NewNative wraps a host function.
func (h *Heap) NewNative(fn NativeFn) *Native {
	n := &Native{Function: fn}
	h.allocate(n, TypeNative)
	return n
}

func (h *Heap) newNativeMethod(fn NativeMethodFn) *NativeMethod {
	m := &NativeMethod{Function: fn}
	h.allocate(m, TypeNativeMethod)
	return m
}

// CallNativeMethod invokes m on receiver. A NoValue result becomes an
// *ArityError for the execution loop to raise.
func (h *Heap) CallNativeMethod(name string, m *NativeMethod, receiver Value, args []Value) (Value, error) {
	result := m.Function(h, receiver, args)
	if result.IsNoValue() {
		return Nil, &ArityError{Method: name, Got: len(args)}
	}
	return result, nil
}
