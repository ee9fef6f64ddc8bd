package vm

import (
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// Class tests
// ---------------------------------------------------------------------------

func newPointClass(t *testing.T, h *Heap) *Class {
	t.Helper()
	name := h.CopyString("Point")
	h.Push(ObjVal(name))
	c := h.NewClass(name)
	h.Pop()
	h.Push(ObjVal(c))
	return c
}

func TestNewClass(t *testing.T) {
	h, _ := newTestHeap(t, false)
	c := newPointClass(t, h)

	if c.Name.Chars() != "Point" {
		t.Errorf("Name = %q, want Point", c.Name.Chars())
	}
	if c.Methods.Len() != 0 {
		t.Errorf("new class has %d methods", c.Methods.Len())
	}
	if c.IsBuiltin() {
		t.Error("NewClass produced a builtin class")
	}
	if c.Type() != TypeClass {
		t.Errorf("Type() = %v, want Class", c.Type())
	}
}

func TestNewBuiltinClass(t *testing.T) {
	h, _ := newTestHeap(t, true)
	c := h.NewBuiltinClass("Object")
	h.Push(ObjVal(c))

	if !c.IsBuiltin() {
		t.Error("NewBuiltinClass produced a plain class")
	}
	if c.Type() != TypeBuiltinClass {
		t.Errorf("Type() = %v, want BuiltinClass", c.Type())
	}
	if c.Name != h.CopyString("Object") {
		t.Error("builtin class name is not the interned string")
	}
	got, ok := h.ClassOf(ObjVal(c))
	if !ok || got != &c.Class {
		t.Error("ClassOf did not resolve a builtin class")
	}
}

func TestDefineMethod(t *testing.T) {
	h, _ := newTestHeap(t, false)
	c := newPointClass(t, h)

	fn := h.NewFunction()
	h.Push(ObjVal(fn))
	closure := h.NewClosure(fn)
	h.Push(ObjVal(closure))
	name := h.CopyString("norm")
	h.Push(ObjVal(name))

	c.DefineMethod(name, ObjVal(closure))
	m, ok := c.FindMethod(name)
	if !ok {
		t.Fatal("FindMethod missed a defined method")
	}
	if got, _ := As[*Closure](h, m); got != closure {
		t.Error("FindMethod returned a different callable")
	}
	if _, ok := c.FindMethod(h.CopyString("missing")); ok {
		t.Error("FindMethod found an undefined method")
	}
}

// ---------------------------------------------------------------------------
// Instance tests
// ---------------------------------------------------------------------------

func TestInstanceFieldsIndependentOfMethods(t *testing.T) {
	h, _ := newTestHeap(t, false)
	c := newPointClass(t, h)
	inst := h.NewInstance(c)
	h.Push(ObjVal(inst))

	if inst.Class != c {
		t.Error("instance does not refer to its class")
	}
	if inst.Fields.Len() != 0 {
		t.Errorf("new instance has %d fields", inst.Fields.Len())
	}

	x := h.CopyString("x")
	h.Push(ObjVal(x))
	if !inst.SetField(x, FromNumber(1)) {
		t.Error("first assignment did not create the field")
	}
	if inst.SetField(x, FromNumber(2)) {
		t.Error("second assignment reported a new field")
	}
	if v, ok := inst.GetField(x); !ok || v != FromNumber(2) {
		t.Errorf("GetField(x) = %v, %v", h.Format(v), ok)
	}

	if _, ok := c.FindMethod(x); ok {
		t.Error("field assignment leaked into the method table")
	}
	if _, ok := inst.GetField(h.CopyString("y")); ok {
		t.Error("missing field was found")
	}
	if c.Methods.Len() != 0 {
		t.Errorf("class has %d methods after field writes", c.Methods.Len())
	}
}

func TestInstancesHaveSeparateFields(t *testing.T) {
	h, _ := newTestHeap(t, false)
	c := newPointClass(t, h)
	a := h.NewInstance(c)
	h.Push(ObjVal(a))
	b := h.NewInstance(c)
	h.Push(ObjVal(b))

	x := h.CopyString("x")
	h.Push(ObjVal(x))
	a.SetField(x, FromNumber(1))

	if _, ok := b.GetField(x); ok {
		t.Error("field written on one instance is visible on another")
	}
}

// ---------------------------------------------------------------------------
// Bound methods and natives
// ---------------------------------------------------------------------------

func TestNewBoundMethod(t *testing.T) {
	h, _ := newTestHeap(t, false)
	c := newPointClass(t, h)
	inst := h.NewInstance(c)
	h.Push(ObjVal(inst))
	fn := h.NewFunction()
	h.Push(ObjVal(fn))
	closure := h.NewClosure(fn)
	h.Push(ObjVal(closure))

	bm := h.NewBoundMethod(ObjVal(inst), closure)
	if bm.Receiver != ObjVal(inst) || bm.Method != closure {
		t.Error("bound method does not pair receiver and closure")
	}
}

func TestNewNative(t *testing.T) {
	h, _ := newTestHeap(t, false)
	n := h.NewNative(func(h *Heap, args []Value) Value {
		return FromNumber(float64(len(args)))
	})
	if got := n.Function(h, []Value{Nil, Nil}); got != FromNumber(2) {
		t.Errorf("native returned %v, want 2", h.Format(got))
	}
}

// ---------------------------------------------------------------------------
// Builtin Object.toString
// ---------------------------------------------------------------------------

func TestObjectToString(t *testing.T) {
	h, _ := newTestHeap(t, true)
	object := h.NewObjectClass()
	h.Push(ObjVal(object))

	method, ok := object.FindMethod(h.CopyString("toString"))
	if !ok {
		t.Fatal("Object has no toString")
	}
	toString, ok := As[*NativeMethod](h, method)
	if !ok {
		t.Fatalf("toString is a %T, want *NativeMethod", h.Deref(method))
	}

	c := newPointClass(t, h)
	inst := h.NewInstance(c)
	h.Push(ObjVal(inst))

	got := toString.Function(h, ObjVal(inst), nil)
	s, ok := As[*String](h, got)
	if !ok || s.Chars() != "Point" {
		t.Fatalf("toString() = %v, want Point", h.Format(got))
	}
	if s != c.Name {
		t.Error("toString did not return the interned class name")
	}

	for _, args := range [][]Value{{Nil}, {FromNumber(1), FromNumber(2)}} {
		if got := toString.Function(h, ObjVal(inst), args); !got.IsNoValue() {
			t.Errorf("toString with %d args = %v, want NoValue", len(args), h.Format(got))
		}
	}
}

func TestCallNativeMethodArityError(t *testing.T) {
	h, _ := newTestHeap(t, false)
	object := h.NewObjectClass()
	h.Push(ObjVal(object))
	method, _ := object.FindMethod(h.CopyString("toString"))
	toString, _ := As[*NativeMethod](h, method)

	c := newPointClass(t, h)
	inst := h.NewInstance(c)
	h.Push(ObjVal(inst))

	_, err := h.CallNativeMethod("toString", toString, ObjVal(inst), []Value{Nil})
	if !errors.Is(err, ErrArity) {
		t.Fatalf("err = %v, want ErrArity", err)
	}
	var arity *ArityError
	if !errors.As(err, &arity) || arity.Got != 1 || arity.Method != "toString" {
		t.Errorf("ArityError = %+v", arity)
	}

	v, err := h.CallNativeMethod("toString", toString, ObjVal(inst), nil)
	if err != nil {
		t.Fatalf("zero-arg call failed: %v", err)
	}
	if h.Format(v) != "Point" {
		t.Errorf("toString() = %q, want Point", h.Format(v))
	}
}
