package timeline

import (
	"math"

	"github.com/google/btree"
)

// Pulse is the chart's absolute tick coordinate.
type Pulse int64

// RelPulse is a tick offset relative to a section start.
type RelPulse int64

// MeasureIdx is a zero-based measure (bar) number.
type MeasureIdx int64

const (
	// Resolution is the number of pulses in a quarter note.
	Resolution Pulse = 240
	// Resolution4 is the number of pulses in a whole note.
	Resolution4 Pulse = Resolution * 4
)

// Key is the set of integer coordinates a Map can be keyed by.
type Key interface {
	~int64
}

// Entry is one key/value pair of a Map.
type Entry[K Key, V any] struct {
	Key   K
	Value V
}

const btreeDegree = 16

// Map is an ordered mapping from an integer time coordinate to a value.
// Keys are unique and iterate in increasing order. The zero value is an
// empty map ready to use; a nil *Map behaves as an empty map for reads.
type Map[K Key, V any] struct {
	tree *btree.BTreeG[Entry[K, V]]
}

func lessEntry[K Key, V any](a, b Entry[K, V]) bool { return a.Key < b.Key }

// New returns an empty map.
func New[K Key, V any]() *Map[K, V] {
	return &Map[K, V]{}
}

// FromEntries builds a map from entries; later duplicates overwrite earlier ones.
func FromEntries[K Key, V any](entries ...Entry[K, V]) *Map[K, V] {
	m := New[K, V]()
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return m
}

func (m *Map[K, V]) init() {
	if m.tree == nil {
		m.tree = btree.NewG[Entry[K, V]](btreeDegree, lessEntry[K, V])
	}
}

// Set stores v at k, replacing any existing value.
func (m *Map[K, V]) Set(k K, v V) {
	m.init()
	m.tree.ReplaceOrInsert(Entry[K, V]{Key: k, Value: v})
}

// Insert stores v at k only if k is not present. It reports whether v was stored.
func (m *Map[K, V]) Insert(k K, v V) bool {
	m.init()
	if m.tree.Has(Entry[K, V]{Key: k}) {
		return false
	}
	m.tree.ReplaceOrInsert(Entry[K, V]{Key: k, Value: v})
	return true
}

// Get returns the value stored exactly at k.
func (m *Map[K, V]) Get(k K) (V, bool) {
	if m == nil || m.tree == nil {
		var zero V
		return zero, false
	}
	e, ok := m.tree.Get(Entry[K, V]{Key: k})
	return e.Value, ok
}

func (m *Map[K, V]) Contains(k K) bool {
	if m == nil || m.tree == nil {
		return false
	}
	return m.tree.Has(Entry[K, V]{Key: k})
}

func (m *Map[K, V]) Len() int {
	if m == nil || m.tree == nil {
		return 0
	}
	return m.tree.Len()
}

func (m *Map[K, V]) Empty() bool { return m.Len() == 0 }

// First returns the entry with the smallest key.
func (m *Map[K, V]) First() (Entry[K, V], bool) {
	if m == nil || m.tree == nil {
		return Entry[K, V]{}, false
	}
	return m.tree.Min()
}

// Last returns the entry with the greatest key.
func (m *Map[K, V]) Last() (Entry[K, V], bool) {
	if m == nil || m.tree == nil {
		return Entry[K, V]{}, false
	}
	return m.tree.Max()
}

// Floor returns the entry with the greatest key <= k.
func (m *Map[K, V]) Floor(k K) (Entry[K, V], bool) {
	var out Entry[K, V]
	found := false
	if m == nil || m.tree == nil {
		return out, false
	}
	m.tree.DescendLessOrEqual(Entry[K, V]{Key: k}, func(e Entry[K, V]) bool {
		out, found = e, true
		return false
	})
	return out, found
}

// Higher returns the entry with the smallest key > k.
func (m *Map[K, V]) Higher(k K) (Entry[K, V], bool) {
	var out Entry[K, V]
	found := false
	if m == nil || m.tree == nil || int64(k) == math.MaxInt64 {
		return out, false
	}
	m.tree.AscendGreaterOrEqual(Entry[K, V]{Key: k + 1}, func(e Entry[K, V]) bool {
		out, found = e, true
		return false
	})
	return out, found
}

// Owning returns the entry that owns k: the greatest key <= k, or the first
// entry when k precedes every key. It reports false only for an empty map.
func (m *Map[K, V]) Owning(k K) (Entry[K, V], bool) {
	if e, ok := m.Floor(k); ok {
		return e, true
	}
	return m.First()
}

// Ascend calls fn for every entry in key order until fn returns false.
func (m *Map[K, V]) Ascend(fn func(k K, v V) bool) {
	if m == nil || m.tree == nil {
		return
	}
	m.tree.Ascend(func(e Entry[K, V]) bool {
		return fn(e.Key, e.Value)
	})
}

// AscendRange calls fn for entries with from <= key < to.
func (m *Map[K, V]) AscendRange(from, to K, fn func(k K, v V) bool) {
	if m == nil || m.tree == nil {
		return
	}
	m.tree.AscendRange(Entry[K, V]{Key: from}, Entry[K, V]{Key: to}, func(e Entry[K, V]) bool {
		return fn(e.Key, e.Value)
	})
}

// Entries returns a snapshot of all entries in key order.
func (m *Map[K, V]) Entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, m.Len())
	m.Ascend(func(k K, v V) bool {
		out = append(out, Entry[K, V]{Key: k, Value: v})
		return true
	})
	return out
}

func (m *Map[K, V]) Keys() []K {
	out := make([]K, 0, m.Len())
	m.Ascend(func(k K, _ V) bool {
		out = append(out, k)
		return true
	})
	return out
}

// Clone returns an independent copy. Values are copied shallowly.
func (m *Map[K, V]) Clone() *Map[K, V] {
	if m == nil || m.tree == nil {
		return New[K, V]()
	}
	return &Map[K, V]{tree: m.tree.Clone()}
}

// Equal reports whether a and b hold the same keys with values equal under eq.
func Equal[K Key, V any](a, b *Map[K, V], eq func(x, y V) bool) bool {
	if a.Len() != b.Len() {
		return false
	}
	ea, eb := a.Entries(), b.Entries()
	for i := range ea {
		if ea[i].Key != eb[i].Key || !eq(ea[i].Value, eb[i].Value) {
			return false
		}
	}
	return true
}
