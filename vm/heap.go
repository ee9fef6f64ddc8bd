package vm

import (
	"io"
	"os"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("loxheap.vm")

// ---------------------------------------------------------------------------
// Heap: registry, arena and allocation
// ---------------------------------------------------------------------------

// Default collector tuning.
const (
	DefaultGrowFactor    = 2
	DefaultInitialNextGC = 1024 * 1024
)

// Config tunes a Heap.
type Config struct {
	// StressGC collects on every allocation that grows the heap.
	StressGC bool

	// LogGC traces every allocation and free at debug level.
	LogGC bool

	// GrowFactor sets the next collection threshold as a multiple of the
	// bytes still allocated after a collection.
	GrowFactor int

	// InitialNextGC is the byte count that triggers the first collection.
	InitialNextGC int

	// Output receives PrintValue output. Defaults to os.Stdout.
	Output io.Writer
}

// DefaultConfig returns the default heap configuration.
func DefaultConfig() Config {
	return Config{
		GrowFactor:    DefaultGrowFactor,
		InitialNextGC: DefaultInitialNextGC,
	}
}

// Heap owns every runtime object. It holds the registry list that the
// collector sweeps, the arena that maps handles to objects, the intern
// table, the value stack and the list of open upvalues.
//
// A Heap is used from a single goroutine. Collections run synchronously
// inside allocation.
type Heap struct {
	cfg Config
	out io.Writer

	objects Obj      // registry head; newest first
	arena   []Obj    // handle-1 -> object
	free    []Handle // recycled arena slots

	strings      Table
	stack        *Stack
	openUpvalues *Upvalue
	roots        []RootFunc

	bytesAllocated int
	nextGC         int

	collecting bool
	gray       []Obj
	gcCount    uint64
	lastStats  *GCStats
}

// NewHeap creates an empty heap.
func NewHeap(cfg Config) *Heap {
	if cfg.GrowFactor <= 0 {
		cfg.GrowFactor = DefaultGrowFactor
	}
	if cfg.InitialNextGC <= 0 {
		cfg.InitialNextGC = DefaultInitialNextGC
	}
	h := &Heap{
		cfg:    cfg,
		out:    cfg.Output,
		stack:  NewStack(256),
		nextGC: cfg.InitialNextGC,
	}
	if h.out == nil {
		h.out = os.Stdout
	}
	h.strings = newTable(h)
	return h
}

// Config returns the heap's configuration.
func (h *Heap) Config() Config {
	return h.cfg
}

// Stack returns the value stack.
func (h *Heap) Stack() *Stack {
	return h.stack
}

// Push roots v on the value stack.
func (h *Heap) Push(v Value) {
	h.stack.Push(v)
}

// Pop removes the top of the value stack.
func (h *Heap) Pop() Value {
	return h.stack.Pop()
}

// BytesAllocated returns the number of bytes currently accounted.
func (h *Heap) BytesAllocated() int {
	return h.bytesAllocated
}

// NextGC returns the byte threshold for the next collection.
func (h *Heap) NextGC() int {
	return h.nextGC
}

// ---------------------------------------------------------------------------
// Allocation
// ---------------------------------------------------------------------------

// reallocate accounts a change in allocated bytes. Growth may run a
// collection before it returns; shrinking never does. newSize == 0 frees.
func (h *Heap) reallocate(oldSize, newSize int) {
	h.bytesAllocated += newSize - oldSize
	if newSize > oldSize {
		if h.cfg.StressGC || h.bytesAllocated > h.nextGC {
			h.Collect()
		}
	}
}

// AllocateBytes returns an accounted buffer of n bytes. Ownership passes to
// TakeString.
func (h *Heap) AllocateBytes(n int) []byte {
	h.reallocate(0, n)
	return make([]byte, n)
}

// allocate is the single entry point for creating heap objects. It runs
// the allocation primitive first, so any collection it triggers happens
// before obj exists, then stamps the header, claims a handle and links
// obj at the head of the registry.
func (h *Heap) allocate(obj Obj, typ ObjType) {
	size := headerSizes[typ]
	h.reallocate(0, size)

	hdr := obj.header()
	hdr.typ = typ
	hdr.marked = false
	hdr.handle = h.claimHandle(obj)
	hdr.next = h.objects
	h.objects = obj

	if h.cfg.LogGC {
		log.Debugf("#%d allocate %d for %s", hdr.handle, size, typ)
	}
}

func (h *Heap) claimHandle(obj Obj) Handle {
	if n := len(h.free); n > 0 {
		handle := h.free[n-1]
		h.free = h.free[:n-1]
		h.arena[handle-1] = obj
		return handle
	}
	h.arena = append(h.arena, obj)
	return Handle(len(h.arena))
}

// freeObject releases an object the collector found unreachable. The
// caller has already unlinked it from the registry.
func (h *Heap) freeObject(o Obj) {
	hdr := o.header()
	size := objectSize(o)
	if h.cfg.LogGC {
		log.Debugf("#%d free type %s", hdr.handle, hdr.typ)
	}

	switch o := o.(type) {
	case *Class:
		o.Methods.release()
	case *BuiltinClass:
		o.Methods.release()
	case *Instance:
		o.Fields.release()
	case *Closure:
		o.Upvalues = nil
	}

	h.arena[hdr.handle-1] = nil
	h.free = append(h.free, hdr.handle)
	hdr.next = nil
	h.reallocate(size, 0)
}

// ---------------------------------------------------------------------------
// Registry access
// ---------------------------------------------------------------------------

// Object returns the live object for handle, or nil if the handle is
// invalid or its object was freed.
func (h *Heap) Object(handle Handle) Obj {
	if handle == 0 || int(handle) > len(h.arena) {
		return nil
	}
	return h.arena[handle-1]
}

// Deref returns the object held by v, or nil if v is not an object.
func (h *Heap) Deref(v Value) Obj {
	if !v.IsObject() {
		return nil
	}
	return h.Object(v.Handle())
}

// As returns the object held by v as a T.
func As[T Obj](h *Heap, v Value) (T, bool) {
	obj, ok := h.Deref(v).(T)
	return obj, ok
}

// TypeOf returns the object type of v. ok is false for non-objects.
func (h *Heap) TypeOf(v Value) (typ ObjType, ok bool) {
	obj := h.Deref(v)
	if obj == nil {
		return 0, false
	}
	return obj.header().typ, true
}

// ForEachObject walks the registry from its head (newest object first).
func (h *Heap) ForEachObject(fn func(obj Obj)) {
	for obj := h.objects; obj != nil; obj = obj.header().next {
		fn(obj)
	}
}

// ObjectCount returns the number of objects in the registry.
func (h *Heap) ObjectCount() int {
	n := 0
	for obj := h.objects; obj != nil; obj = obj.header().next {
		n++
	}
	return n
}
