// Package snapshot captures the heap registry and serializes it to CBOR.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/loxheap/vm"
)

// Version is the snapshot format version written by Marshal.
const Version = 1

// ErrVersion is returned when decoding a snapshot of another format version.
var ErrVersion = errors.New("snapshot: unsupported format version")

// Snapshot is a point-in-time copy of every object in a heap's registry.
type Snapshot struct {
	Version        int      `cbor:"1,keyasint"`
	TakenUnix      int64    `cbor:"2,keyasint"`
	BytesAllocated int      `cbor:"3,keyasint"`
	NextGC         int      `cbor:"4,keyasint"`
	Interned       int      `cbor:"5,keyasint"`
	Objects        []Record `cbor:"6,keyasint"`
}

// Record describes one heap object.
type Record struct {
	Handle uint32   `cbor:"1,keyasint"`
	Type   string   `cbor:"2,keyasint"`
	Text   string   `cbor:"3,keyasint"`
	Refs   []uint32 `cbor:"4,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("snapshot: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Capture walks h's registry from its head and records every object in
// registry order.
func Capture(h *vm.Heap) *Snapshot {
	s := &Snapshot{
		Version:        Version,
		TakenUnix:      time.Now().Unix(),
		BytesAllocated: h.BytesAllocated(),
		NextGC:         h.NextGC(),
		Interned:       h.InternCount(),
	}
	h.ForEachObject(func(obj vm.Obj) {
		rec := Record{
			Handle: uint32(vm.HandleOf(obj)),
			Type:   vm.TypeOfObj(obj).String(),
			Text:   textOf(obj),
		}
		for _, ref := range h.References(obj) {
			rec.Refs = append(rec.Refs, uint32(ref))
		}
		s.Objects = append(s.Objects, rec)
	})
	return s
}

// textOf is the object's display form, except for upvalues, which are
// described by state rather than sent through the projection.
func textOf(obj vm.Obj) string {
	if uv, ok := obj.(*vm.Upvalue); ok {
		if uv.IsOpen() {
			return fmt.Sprintf("open upvalue @%d", uv.Slot())
		}
		return "closed upvalue"
	}
	return vm.FormatObject(obj)
}

// CountByType returns the number of objects of each type.
func (s *Snapshot) CountByType() map[string]int {
	counts := make(map[string]int)
	for _, r := range s.Objects {
		counts[r.Type]++
	}
	return counts
}

// Types returns the object type names present, sorted.
func (s *Snapshot) Types() []string {
	counts := s.CountByType()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Marshal serializes a Snapshot to canonical CBOR bytes.
func Marshal(s *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(s)
}

// Unmarshal deserializes a Snapshot from CBOR bytes.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("snapshot: unmarshal: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}
	return &s, nil
}

// WriteFile marshals s to path.
func WriteFile(path string, s *Snapshot) error {
	data, err := Marshal(s)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("snapshot: write %s: %w", path, err)
	}
	return nil
}

// ReadFile reads and unmarshals the snapshot at path.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	return Unmarshal(data)
}
