package vm

import (
	"fmt"
	"io"
	"strconv"
)

// ---------------------------------------------------------------------------
// Textual projection
// ---------------------------------------------------------------------------

// Format returns the display form of v.
func (h *Heap) Format(v Value) string {
	switch {
	case v == Nil:
		return "nil"
	case v == True:
		return "true"
	case v == False:
		return "false"
	case v == NoValue:
		return "<no value>"
	case v.IsNumber():
		return strconv.FormatFloat(v.Number(), 'g', -1, 64)
	}

	obj := h.Deref(v)
	if obj == nil {
		panic(fmt.Sprintf("Heap.Format: dangling handle %d", v.Handle()))
	}
	return FormatObject(obj)
}

// FormatObject returns the display form of obj.
func FormatObject(obj Obj) string {
	switch o := obj.(type) {
	case *String:
		return o.chars
	case *Function:
		return formatFunction(o)
	case *Closure:
		return formatFunction(o.Function)
	case *BoundMethod:
		return formatFunction(o.Method.Function)
	case *Class:
		return o.Name.chars
	case *BuiltinClass:
		return o.Name.chars
	case *Instance:
		return "<" + o.Class.Name.chars + " instance>"
	case *Native, *NativeMethod:
		return "<native fn>"
	case *Upvalue:
		// Upvalues are not first-class values; getting here means an
		// upvalue leaked onto the stack or into a table.
		log.Warningf("#%d: upvalue reached textual projection", o.handle)
		return "upvalue"
	}
	panic(fmt.Sprintf("FormatObject: unknown object type %T", obj))
}

// formatFunction renders a function. Only the top-level script has no name.
func formatFunction(fn *Function) string {
	if fn.Name == nil {
		return "<script>"
	}
	return "<fn " + fn.Name.chars + ">"
}

// ToString returns the display form of v as an interned string value.
// v must be reachable for the duration of the call.
func (h *Heap) ToString(v Value) *String {
	if s, ok := As[*String](h, v); ok {
		return s
	}
	text := h.Format(v)
	buf := h.AllocateBytes(len(text))
	copy(buf, text)
	return h.TakeString(buf)
}

// PrintValue writes the display form of v to the heap's output.
func (h *Heap) PrintValue(v Value) {
	io.WriteString(h.out, h.Format(v))
}
