package vm

import "unsafe"

// ---------------------------------------------------------------------------
// Table: open-addressing hash table keyed by interned strings
// ---------------------------------------------------------------------------

// tableMaxLoad is the load factor (count including tombstones / capacity)
// above which the table grows.
const tableMaxLoad = 0.75

// entry is a table slot. A nil key with value Nil is empty; a nil key with
// value True is a tombstone.
type entry struct {
	key   *String
	value Value
}

var entrySize = int(unsafe.Sizeof(entry{}))

// Table maps interned strings to values. It backs the intern table, class
// method tables and instance field tables. Storage growth is accounted on
// the owning heap and may trigger a collection.
type Table struct {
	heap    *Heap
	count   int // live entries plus tombstones
	live    int
	entries []entry
}

func newTable(h *Heap) Table {
	return Table{heap: h}
}

// Len returns the number of live entries.
func (t *Table) Len() int {
	return t.live
}

func (t *Table) storageSize() int {
	return len(t.entries) * entrySize
}

// findEntry returns the slot for key: either the slot holding it or the
// slot where it would be inserted (preferring the first tombstone seen).
func findEntry(entries []entry, key *String) *entry {
	capacity := uint32(len(entries))
	index := key.hash % capacity
	var tombstone *entry
	for {
		e := &entries[index]
		if e.key == nil {
			if e.value == Nil {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		} else if e.key == key {
			return e
		}
		index = (index + 1) % capacity
	}
}

// Get returns the value stored under key.
func (t *Table) Get(key *String) (Value, bool) {
	if t.live == 0 {
		return Nil, false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set stores value under key and reports whether key was new.
// Growing the table may run a collection; key and value must already be
// reachable.
func (t *Table) Set(key *String, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}

	e := findEntry(t.entries, key)
	isNew := e.key == nil
	if isNew {
		t.live++
		if e.value == Nil {
			t.count++
		}
	}
	e.key = key
	e.value = value
	return isNew
}

// Delete removes key, leaving a tombstone. Reports whether it was present.
func (t *Table) Delete(key *String) bool {
	if t.live == 0 {
		return false
	}
	e := findEntry(t.entries, key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.value = True
	t.live--
	return true
}

// AddAll copies every entry of from into t.
func (t *Table) AddAll(from *Table) {
	for i := range from.entries {
		if e := &from.entries[i]; e.key != nil {
			t.Set(e.key, e.value)
		}
	}
}

// FindString looks a key up by content rather than identity. It is how the
// interner finds the canonical string for a byte sequence.
func (t *Table) FindString(chars string, hash uint32) *String {
	if t.live == 0 {
		return nil
	}
	capacity := uint32(len(t.entries))
	index := hash % capacity
	for {
		e := &t.entries[index]
		if e.key == nil {
			// Stop at a truly empty slot; skip tombstones.
			if e.value == Nil {
				return nil
			}
		} else if e.key.hash == hash && e.key.chars == chars {
			return e.key
		}
		index = (index + 1) % capacity
	}
}

// ForEach calls fn for every live entry, in slot order.
func (t *Table) ForEach(fn func(key *String, value Value)) {
	for i := range t.entries {
		if e := &t.entries[i]; e.key != nil {
			fn(e.key, e.value)
		}
	}
}

// removeUnmarked deletes entries whose keys were not marked by the current
// collection. Used on the intern table, whose references are weak.
func (t *Table) removeUnmarked() int {
	removed := 0
	for i := range t.entries {
		e := &t.entries[i]
		if e.key != nil && !e.key.marked {
			e.key = nil
			e.value = True
			t.live--
			removed++
		}
	}
	return removed
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

func (t *Table) adjustCapacity(capacity int) {
	if t.heap != nil {
		t.heap.reallocate(len(t.entries)*entrySize, capacity*entrySize)
	}

	entries := make([]entry, capacity)
	for i := range entries {
		entries[i].value = Nil
	}

	// Rehash live entries; tombstones are dropped.
	t.count = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.key == nil {
			continue
		}
		dest := findEntry(entries, old.key)
		dest.key = old.key
		dest.value = old.value
		t.count++
	}
	t.live = t.count
	t.entries = entries
}

// release drops the table's storage. Its bytes are accounted in the
// owning object's size when that object is freed.
func (t *Table) release() {
	t.entries = nil
	t.count = 0
	t.live = 0
}
