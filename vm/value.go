package vm

import (
	"math"
)

// Value represents a runtime value using NaN-boxing.
//
// All values are represented as 64-bit IEEE 754 doubles. Non-number values
// are encoded in the NaN space using the quiet NaN prefix and tag bits to
// distinguish types.
//
// Encoding scheme:
//   - Number: Native IEEE 754 double (if not a tagged NaN, it's a number)
//   - Object: Quiet NaN + tagObject + 32-bit arena handle
//   - Special: Quiet NaN + tagSpecial + special value ID (nil/true/false/none)
//
// Objects are never encoded as raw pointers. The payload is a Handle into
// the owning Heap's arena, so the Go garbage collector always sees every
// object through the arena and the registry.
type Value uint64

// NaN-boxing constants
const (
	// Quiet NaN prefix: exponent all 1s, quiet bit set, sign bit 0
	// 0x7FF8_0000_0000_0000
	nanBits uint64 = 0x7FF8000000000000

	// Tag mask: 3 bits within the NaN mantissa space
	// 0x0007_0000_0000_0000
	tagMask uint64 = 0x0007000000000000

	// Payload mask: 48 bits, of which handles use the low 32
	payloadMask uint64 = 0x0000FFFFFFFFFFFF

	tagObject  uint64 = 0x0001000000000000 // Heap object handle
	tagSpecial uint64 = 0x0003000000000000 // nil, true, false, none
)

// Special value payloads
const (
	specialNil   uint64 = 0
	specialTrue  uint64 = 1
	specialFalse uint64 = 2
	specialNone  uint64 = 3
)

// Pre-defined special values
const (
	Nil   Value = Value(nanBits | tagSpecial | specialNil)
	True  Value = Value(nanBits | tagSpecial | specialTrue)
	False Value = Value(nanBits | tagSpecial | specialFalse)

	// NoValue is returned by native methods to report an argument-count
	// mismatch. It is never stored in a variable or shown to a program;
	// the execution loop turns it into a language-level error.
	NoValue Value = Value(nanBits | tagSpecial | specialNone)
)

// Handle identifies a heap object by its arena slot. Handle(0) is always
// invalid.
type Handle uint32

// ---------------------------------------------------------------------------
// Type checking
// ---------------------------------------------------------------------------

// IsNumber returns true if v represents a float64 value.
// A value is a number if it's not one of our tagged NaN values.
// This includes regular numbers, infinities, and "real" NaN values.
func (v Value) IsNumber() bool {
	bits := uint64(v)

	// Exponent not all 1s: a regular float
	if (bits & 0x7FF0000000000000) != 0x7FF0000000000000 {
		return true
	}

	// Infinity has mantissa == 0 (ignoring sign bit)
	if bits&0x000FFFFFFFFFFFFF == 0 {
		return true
	}

	// Signaling NaN, or a negative NaN: never produced by our tags
	if (bits & (nanBits | 0x8000000000000000)) != nanBits {
		return true
	}

	// A quiet NaN with no tag bits set is a "real" NaN
	return bits&tagMask == 0
}

// IsObject returns true if v holds a heap object handle.
func (v Value) IsObject() bool {
	return (uint64(v) & (0x8000000000000000 | nanBits | tagMask)) == (nanBits | tagObject)
}

// IsNil returns true if v is the nil value.
func (v Value) IsNil() bool {
	return v == Nil
}

// IsBool returns true if v is true or false.
func (v Value) IsBool() bool {
	return v == True || v == False
}

// IsNoValue returns true if v is the native-method arity sentinel.
func (v Value) IsNoValue() bool {
	return v == NoValue
}

// ---------------------------------------------------------------------------
// Number operations
// ---------------------------------------------------------------------------

// Number returns v as a float64.
// Panics if v is not a number.
func (v Value) Number() float64 {
	if !v.IsNumber() {
		panic("Value.Number: not a number")
	}
	return math.Float64frombits(uint64(v))
}

// FromNumber creates a Value from a float64.
func FromNumber(f float64) Value {
	if math.IsNaN(f) {
		// Canonicalize so a computed NaN can never alias a tagged value.
		return Value(math.Float64bits(math.NaN()))
	}
	return Value(math.Float64bits(f))
}

// ---------------------------------------------------------------------------
// Object handle operations
// ---------------------------------------------------------------------------

// Handle returns the arena handle encoded in v.
// Panics if v is not an object.
func (v Value) Handle() Handle {
	if !v.IsObject() {
		panic("Value.Handle: not an object")
	}
	return Handle(uint64(v) & payloadMask)
}

// FromHandle creates an object Value from an arena handle.
func FromHandle(h Handle) Value {
	return Value(nanBits | tagObject | uint64(h))
}

// ---------------------------------------------------------------------------
// Boolean operations
// ---------------------------------------------------------------------------

// Bool returns v as a bool.
// Panics if v is not true or false.
func (v Value) Bool() bool {
	switch v {
	case True:
		return true
	case False:
		return false
	default:
		panic("Value.Bool: not a boolean")
	}
}

// FromBool creates a Value from a bool.
func FromBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// IsFalsey returns true if v is considered false in conditionals.
// Only nil and false are falsey.
func (v Value) IsFalsey() bool {
	return v == False || v == Nil
}

// ---------------------------------------------------------------------------
// Equality
// ---------------------------------------------------------------------------

// ValuesEqual reports whether a and b are equal. Numbers compare
// numerically (so NaN is never equal to itself and 0 == -0). Everything
// else compares by identity, which for strings is content equality
// because strings are interned.
func ValuesEqual(a, b Value) bool {
	if a.IsNumber() && b.IsNumber() {
		return a.Number() == b.Number()
	}
	return a == b
}
