// Package table implements the generic open-addressing hash table that
// underlies every string-keyed map in the runtime: the string intern set
// and the compiler's AddressTable (spec.md §3 Table, §4.2). Every other
// string-keyed map in the system (instance fields, class methods) uses
// github.com/dolthub/swiss instead, since those don't need the
// find-the-canonical-instance semantics tableFindString provides; this
// package exists specifically for that lookup-by-content operation.
package table

import "github.com/drdynamic/piscript/lang/value"

const maxLoad = 0.75

// entry is one slot in a Table. An empty slot has a nil Key; a deleted
// slot (a tombstone) also has a nil Key but Tombstone set, which is how
// findEntry tells the difference between "probe can stop here" and
// "probe must continue" (spec.md §4.2 "linear probing with tombstones").
type entry[V any] struct {
	Key       *value.String
	Value     V
	Tombstone bool
}

// Table is a hash table keyed by interned strings, open-addressed with
// linear probing and tombstone deletion. The zero value is an empty
// table ready to use.
type Table[V any] struct {
	entries  []entry[V]
	count    int // live entries plus tombstones, per spec.md §4.2
	liveOnly int
}

// Count reports the number of live (non-tombstone) entries.
func (t *Table[V]) Count() int { return t.liveOnly }

func (t *Table[V]) findEntry(entries []entry[V], key *value.String) int {
	capacity := len(entries)
	index := int(key.Hash() % uint32(capacity))
	tombstone := -1
	for {
		e := &entries[index]
		if e.Key == nil {
			if !e.Tombstone {
				if tombstone != -1 {
					return tombstone
				}
				return index
			}
			if tombstone == -1 {
				tombstone = index
			}
		} else if e.Key == key {
			return index
		}
		index = (index + 1) % capacity
	}
}

func (t *Table[V]) adjustCapacity(capacity int) {
	entries := make([]entry[V], capacity)
	t.liveOnly = 0
	for i := range t.entries {
		old := &t.entries[i]
		if old.Key == nil {
			continue
		}
		idx := t.findEntry(entries, old.Key)
		entries[idx].Key = old.Key
		entries[idx].Value = old.Value
		t.liveOnly++
	}
	t.entries = entries
	t.count = t.liveOnly
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

// Get returns the value stored under key, if any.
func (t *Table[V]) Get(key *value.String) (V, bool) {
	var zero V
	if t.count == 0 {
		return zero, false
	}
	idx := t.findEntry(t.entries, key)
	e := &t.entries[idx]
	if e.Key == nil {
		return zero, false
	}
	return e.Value, true
}

// Set stores value under key, growing the table first if the load factor
// would exceed 0.75 (spec.md §4.2 invariant). Returns true if key was not
// already present.
func (t *Table[V]) Set(key *value.String, val V) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		t.adjustCapacity(growCapacity(len(t.entries)))
	}
	idx := t.findEntry(t.entries, key)
	e := &t.entries[idx]
	isNew := e.Key == nil
	if isNew && !e.Tombstone {
		t.count++
	}
	if isNew {
		t.liveOnly++
	}
	e.Key = key
	e.Value = val
	e.Tombstone = false
	return isNew
}

// Delete removes key, leaving a tombstone behind so later probes that
// skipped over this slot still find entries placed after it.
func (t *Table[V]) Delete(key *value.String) bool {
	if t.count == 0 {
		return false
	}
	idx := t.findEntry(t.entries, key)
	e := &t.entries[idx]
	if e.Key == nil {
		return false
	}
	var zero V
	e.Key = nil
	e.Value = zero
	e.Tombstone = true
	t.liveOnly--
	return true
}

// AddAll copies every live entry of from into t, overwriting existing
// keys (spec.md §4.2 tableAddAll, used when flattening superclass
// methods into a subclass at OP_INHERIT... note: classes use
// github.com/dolthub/swiss instead, so nothing in this module calls
// AddAll today).
func (t *Table[V]) AddAll(from *Table[V]) {
	for i := range from.entries {
		e := &from.entries[i]
		if e.Key != nil {
			t.Set(e.Key, e.Value)
		}
	}
}

// FindString looks up a string by content and hash rather than by
// identity, which is exactly what the intern set needs to decide whether
// an equivalent string already exists before allocating a new one
// (spec.md §4.2 tableFindString).
func (t *Table[V]) FindString(chars []byte, hash uint32) *value.String {
	if t.count == 0 {
		return nil
	}
	capacity := len(t.entries)
	index := int(hash % uint32(capacity))
	for {
		e := &t.entries[index]
		if e.Key == nil {
			if !e.Tombstone {
				return nil
			}
		} else if e.Key.Hash() == hash && e.Key.Len() == len(chars) && string(e.Key.Bytes()) == string(chars) {
			return e.Key
		}
		index = (index + 1) % capacity
	}
}

// RemoveWhite deletes every entry whose key is an unmarked (white)
// string. Called by the collector right before the sweep phase so the
// intern set never holds a dangling reference to a string it is about
// to free (spec.md §4.7 "remove white strings from the intern table
// before sweeping").
func (t *Table[V]) RemoveWhite() {
	for i := range t.entries {
		e := &t.entries[i]
		if e.Key != nil && !e.Key.Marked() {
			t.Delete(e.Key)
		}
	}
}

// Keys returns every live key, for GC root marking and diagnostics. The
// order is unspecified.
func (t *Table[V]) Keys() []*value.String {
	keys := make([]*value.String, 0, t.liveOnly)
	for i := range t.entries {
		if t.entries[i].Key != nil {
			keys = append(keys, t.entries[i].Key)
		}
	}
	return keys
}
