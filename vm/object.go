package vm

import (
	"fmt"
	"unsafe"
)

// ObjType tags every heap object with its concrete kind.
type ObjType uint8

const (
	TypeString ObjType = iota
	TypeFunction
	TypeClosure
	TypeUpvalue
	TypeClass
	TypeBuiltinClass
	TypeInstance
	TypeBoundMethod
	TypeNative
	TypeNativeMethod
)

var objTypeNames = [...]string{
	TypeString:       "String",
	TypeFunction:     "Function",
	TypeClosure:      "Closure",
	TypeUpvalue:      "Upvalue",
	TypeClass:        "Class",
	TypeBuiltinClass: "BuiltinClass",
	TypeInstance:     "Instance",
	TypeBoundMethod:  "BoundMethod",
	TypeNative:       "Native",
	TypeNativeMethod: "NativeMethod",
}

func (t ObjType) String() string {
	if int(t) < len(objTypeNames) {
		return objTypeNames[t]
	}
	return fmt.Sprintf("ObjType(%d)", uint8(t))
}

// Header is embedded at the start of every heap object. Only
// Heap.allocate writes it.
type Header struct {
	typ    ObjType
	marked bool
	handle Handle
	next   Obj // registry link
}

// Obj is implemented by every heap object type in this package.
type Obj interface {
	header() *Header
}

func (h *Header) header() *Header { return h }

// Type returns the object's type tag.
func (h *Header) Type() ObjType { return h.typ }

// Handle returns the object's arena handle.
func (h *Header) Handle() Handle { return h.handle }

// ObjVal converts an object to a Value.
func ObjVal(o Obj) Value {
	return FromHandle(o.header().handle)
}

// HandleOf returns the arena handle of o.
func HandleOf(o Obj) Handle {
	return o.header().handle
}

// TypeOfObj returns the type tag of o.
func TypeOfObj(o Obj) ObjType {
	return o.header().typ
}

// ---------------------------------------------------------------------------
// Object types
// ---------------------------------------------------------------------------

// String is an immutable, interned byte sequence with a cached hash.
type String struct {
	Header
	chars string
	hash  uint32
}

// Chars returns the string's contents.
func (s *String) Chars() string { return s.chars }

// Len returns the length in bytes.
func (s *String) Len() int { return len(s.chars) }

// Hash returns the cached FNV-1a hash.
func (s *String) Hash() uint32 { return s.hash }

func (s *String) String() string { return s.chars }

// Chunk is the bytecode unit attached to a Function. The compiler fills
// it and the execution loop reads it; the heap only zero-initializes it
// and traces its constants.
type Chunk struct {
	Code      []byte
	Lines     []int
	Constants []Value
}

// Write appends one byte of code with its source line.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.Lines = append(c.Lines, line)
}

// AddConstant appends v to the constant pool and returns its index.
// The caller keeps v reachable until it is stored here.
func (c *Chunk) AddConstant(v Value) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Function is a compiled function. Name is nil for the top-level script.
type Function struct {
	Header
	Name         *String
	Arity        int
	UpvalueCount int
	Chunk        Chunk
}

// Closure pairs a Function with the upvalues it captured. The closure
// owns the Upvalues slice but not the upvalues it points to.
type Closure struct {
	Header
	Function *Function
	Upvalues []*Upvalue
}

// Upvalue is a captured variable. While open it aliases a slot of the
// value stack by index; once closed it owns its value.
type Upvalue struct {
	Header
	stack  *Stack // nil once closed
	slot   int
	closed Value

	// Next links open upvalues, ordered by slot from deepest to
	// shallowest. Maintained by Heap.CaptureUpvalue.
	Next *Upvalue
}

// Class has a name and a method table mapping interned names to
// closures or native methods.
type Class struct {
	Header
	Name    *String
	Methods Table
}

// BuiltinClass is a Class whose methods are all native. It is only made
// by Heap.NewBuiltinClass.
type BuiltinClass struct {
	Class
}

// Instance is an object of a class with its own field table.
type Instance struct {
	Header
	Class  *Class
	Fields Table
}

// BoundMethod is a method closure bound to the receiver it was read from.
type BoundMethod struct {
	Header
	Receiver Value
	Method   *Closure
}

// NativeFn is a host function callable from programs.
type NativeFn func(h *Heap, args []Value) Value

// Native wraps a NativeFn.
type Native struct {
	Header
	Function NativeFn
}

// NativeMethodFn is a host method. len(args) is the call's argument count;
// a method that rejects it returns NoValue.
type NativeMethodFn func(h *Heap, receiver Value, args []Value) Value

// NativeMethod wraps a NativeMethodFn for storage in a method table.
type NativeMethod struct {
	Header
	Function NativeMethodFn
}

// ---------------------------------------------------------------------------
// Sizes
// ---------------------------------------------------------------------------

var headerSizes = [...]int{
	TypeString:       int(unsafe.Sizeof(String{})),
	TypeFunction:     int(unsafe.Sizeof(Function{})),
	TypeClosure:      int(unsafe.Sizeof(Closure{})),
	TypeUpvalue:      int(unsafe.Sizeof(Upvalue{})),
	TypeClass:        int(unsafe.Sizeof(Class{})),
	TypeBuiltinClass: int(unsafe.Sizeof(BuiltinClass{})),
	TypeInstance:     int(unsafe.Sizeof(Instance{})),
	TypeBoundMethod:  int(unsafe.Sizeof(BoundMethod{})),
	TypeNative:       int(unsafe.Sizeof(Native{})),
	TypeNativeMethod: int(unsafe.Sizeof(NativeMethod{})),
}

const pointerSize = int(unsafe.Sizeof(uintptr(0)))

// objectSize returns the number of bytes accounted for o, including
// payloads that were accounted separately (string bytes, upvalue slots,
// table storage).
func objectSize(o Obj) int {
	size := headerSizes[o.header().typ]
	switch o := o.(type) {
	case *String:
		size += len(o.chars)
	case *Closure:
		size += len(o.Upvalues) * pointerSize
	case *Class:
		size += o.Methods.storageSize()
	case *BuiltinClass:
		size += o.Methods.storageSize()
	case *Instance:
		size += o.Fields.storageSize()
	}
	return size
}
