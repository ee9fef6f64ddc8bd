package vm

import (
	"time"
)

// ---------------------------------------------------------------------------
// Collector: stop-the-world mark-sweep over the registry
// ---------------------------------------------------------------------------

// GCStats holds statistics from a single collection.
type GCStats struct {
	Freed         int // objects swept
	InternsPurged int // intern table entries dropped
	BytesBefore   int
	BytesAfter    int
	NextGC        int
	Duration      time.Duration
	Timestamp     time.Time
}

// RootFunc reports extra roots, such as globals or compiler state, by
// calling mark for each root value.
type RootFunc func(mark func(Value))

// AddRoots registers a root source consulted by every collection.
func (h *Heap) AddRoots(fn RootFunc) {
	h.roots = append(h.roots, fn)
}

// GCCount returns the number of collections performed.
func (h *Heap) GCCount() uint64 {
	return h.gcCount
}

// LastGCStats returns statistics from the most recent collection, or nil
// if none has run.
func (h *Heap) LastGCStats() *GCStats {
	return h.lastStats
}

// Collect runs a full collection and returns its statistics. Calls made
// while a collection is already running return nil.
//
// Roots are the value stack, the open upvalues and every registered root
// source. The intern table holds its strings weakly.
func (h *Heap) Collect() *GCStats {
	if h.collecting {
		return nil
	}
	h.collecting = true
	defer func() { h.collecting = false }()

	start := time.Now()
	stats := &GCStats{BytesBefore: h.bytesAllocated, Timestamp: start}

	h.markRoots()
	h.traceReferences()
	stats.InternsPurged = h.strings.removeUnmarked()
	stats.Freed = h.sweep()

	h.nextGC = h.bytesAllocated * h.cfg.GrowFactor
	if h.nextGC < h.cfg.InitialNextGC {
		h.nextGC = h.cfg.InitialNextGC
	}

	stats.BytesAfter = h.bytesAllocated
	stats.NextGC = h.nextGC
	stats.Duration = time.Since(start)
	h.gcCount++
	h.lastStats = stats

	if h.cfg.LogGC {
		log.Infof("collected %d bytes (from %d to %d) next at %d, freed %d objects",
			stats.BytesBefore-stats.BytesAfter, stats.BytesBefore, stats.BytesAfter,
			stats.NextGC, stats.Freed)
	}
	return stats
}

func (h *Heap) markRoots() {
	h.stack.ForEach(func(_ int, v Value) {
		h.markValue(v)
	})
	for uv := h.openUpvalues; uv != nil; uv = uv.Next {
		h.markObject(uv)
	}
	for _, root := range h.roots {
		root(h.markValue)
	}
}

func (h *Heap) markValue(v Value) {
	if v.IsObject() {
		h.markObject(h.Object(v.Handle()))
	}
}

func (h *Heap) markObject(o Obj) {
	if o == nil {
		return
	}
	hdr := o.header()
	if hdr.marked {
		return
	}
	hdr.marked = true
	h.gray = append(h.gray, o)
}

func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		o := h.gray[len(h.gray)-1]
		h.gray = h.gray[:len(h.gray)-1]
		eachReference(o, h.markValue, h.markObject)
	}
}

// eachReference reports every object o refers to, as values or as objects.
func eachReference(o Obj, value func(Value), object func(Obj)) {
	markTable := func(t *Table) {
		t.ForEach(func(key *String, v Value) {
			object(key)
			value(v)
		})
	}

	switch o := o.(type) {
	case *String, *Native, *NativeMethod:
		// leaves
	case *Upvalue:
		value(o.closed)
	case *Function:
		if o.Name != nil {
			object(o.Name)
		}
		for _, c := range o.Chunk.Constants {
			value(c)
		}
	case *Closure:
		object(o.Function)
		for _, uv := range o.Upvalues {
			if uv != nil {
				object(uv)
			}
		}
	case *Class:
		object(o.Name)
		markTable(&o.Methods)
	case *BuiltinClass:
		object(o.Name)
		markTable(&o.Methods)
	case *Instance:
		object(o.Class)
		markTable(&o.Fields)
	case *BoundMethod:
		value(o.Receiver)
		object(o.Method)
	}
}

// References returns the handles of the objects o refers to directly.
func (h *Heap) References(o Obj) []Handle {
	var refs []Handle
	eachReference(o,
		func(v Value) {
			if v.IsObject() {
				refs = append(refs, v.Handle())
			}
		},
		func(ref Obj) {
			refs = append(refs, ref.header().handle)
		})
	return refs
}

// sweep frees every unmarked object in the registry and clears the marks
// of the survivors. Returns the number freed.
func (h *Heap) sweep() int {
	freed := 0
	var prev Obj
	obj := h.objects
	for obj != nil {
		hdr := obj.header()
		if hdr.marked {
			hdr.marked = false
			prev = obj
			obj = hdr.next
			continue
		}

		unreached := obj
		obj = hdr.next
		if prev == nil {
			h.objects = obj
		} else {
			prev.header().next = obj
		}
		h.freeObject(unreached)
		freed++
	}
	return freed
}
