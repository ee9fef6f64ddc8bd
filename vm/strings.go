package vm

import (
	"strings"
	"unsafe"
)

// ---------------------------------------------------------------------------
// String interning
// ---------------------------------------------------------------------------

// FNV-1a parameters (32-bit).
const (
	fnvOffsetBasis uint32 = 2166136261
	fnvPrime       uint32 = 16777619
)

// HashString computes the 32-bit FNV-1a hash of s.
func HashString(s string) uint32 {
	hash := fnvOffsetBasis
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= fnvPrime
	}
	return hash
}

// CopyString returns the canonical string with the contents of chars. It
// never retains chars: when the contents are not yet interned, the heap
// takes a private copy.
func (h *Heap) CopyString(chars string) *String {
	hash := HashString(chars)
	if interned := h.strings.FindString(chars, hash); interned != nil {
		return interned
	}

	h.reallocate(0, len(chars))
	return h.allocateString(strings.Clone(chars), hash)
}

// CopyBytes is CopyString for a byte slice.
func (h *Heap) CopyBytes(chars []byte) *String {
	return h.CopyString(unsafe.String(unsafe.SliceData(chars), len(chars)))
}

// TakeString returns the canonical string with the contents of buf and
// takes ownership of buf, which must come from AllocateBytes. If the
// contents are already interned, buf is released; otherwise it becomes the
// new string's storage without a copy. Either way the caller must not use
// buf afterwards.
func (h *Heap) TakeString(buf []byte) *String {
	chars := unsafe.String(unsafe.SliceData(buf), len(buf))
	hash := HashString(chars)
	if interned := h.strings.FindString(chars, hash); interned != nil {
		h.reallocate(len(buf), 0)
		return interned
	}
	return h.allocateString(chars, hash)
}

// Concatenate returns the interned concatenation of a and b. The caller
// keeps a and b reachable.
func (h *Heap) Concatenate(a, b *String) *String {
	buf := h.AllocateBytes(a.Len() + b.Len())
	n := copy(buf, a.chars)
	copy(buf[n:], b.chars)
	return h.TakeString(buf)
}

// InternCount returns the number of strings in the intern table.
func (h *Heap) InternCount() int {
	return h.strings.Len()
}

// allocateString creates a new String and enters it in the intern table.
// The string is rooted on the stack while the insert may grow the table.
func (h *Heap) allocateString(chars string, hash uint32) *String {
	s := &String{chars: chars, hash: hash}
	h.allocate(s, TypeString)

	h.Push(ObjVal(s))
	h.strings.Set(s, Nil)
	h.Pop()
	return s
}
