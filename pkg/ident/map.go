package ident

// Map is a generic map keyed by case-insensitive identifiers.
// It remembers the original spelling of each key for diagnostics.
//
// Map is not safe for concurrent mutation; the parser owns one per parse.
type Map[V any] struct {
	entries map[string]entry[V]
}

type entry[V any] struct {
	key   string // original spelling
	value V
}

// NewMap creates an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{entries: make(map[string]entry[V])}
}

// NewMapWithCapacity creates an empty Map with room for n entries.
func NewMapWithCapacity[V any](n int) *Map[V] {
	return &Map[V]{entries: make(map[string]entry[V], n)}
}

// Set stores value under key, replacing any previous value stored under a
// case-insensitive match of key.
func (m *Map[V]) Set(key string, value V) {
	m.entries[Normalize(key)] = entry[V]{key: key, value: value}
}

// SetIfAbsent stores value under key only if no case-insensitive match is
// present. It reports whether the value was stored.
func (m *Map[V]) SetIfAbsent(key string, value V) bool {
	norm := Normalize(key)
	if _, ok := m.entries[norm]; ok {
		return false
	}
	m.entries[norm] = entry[V]{key: key, value: value}
	return true
}

// Get returns the value stored under a case-insensitive match of key.
func (m *Map[V]) Get(key string) (V, bool) {
	e, ok := m.entries[Normalize(key)]
	return e.value, ok
}

// GetOriginalKey returns the spelling the key was last stored with: Set
// replaces the stored spelling, SetIfAbsent keeps the existing one.
func (m *Map[V]) GetOriginalKey(key string) (string, bool) {
	e, ok := m.entries[Normalize(key)]
	return e.key, ok
}

// Has reports whether a case-insensitive match of key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.entries[Normalize(key)]
	return ok
}

// Delete removes the entry stored under a case-insensitive match of key.
func (m *Map[V]) Delete(key string) {
	delete(m.entries, Normalize(key))
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	return len(m.entries)
}

// Keys returns the original spellings of all keys in unspecified order.
func (m *Map[V]) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.key)
	}
	return keys
}

// Range calls fn for each entry with the original key spelling.
// Iteration stops if fn returns false.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	for _, e := range m.entries {
		if !fn(e.key, e.value) {
			return
		}
	}
}

// Clear removes all entries.
func (m *Map[V]) Clear() {
	m.entries = make(map[string]entry[V])
}

// Clone returns a shallow copy of the map.
func (m *Map[V]) Clone() *Map[V] {
	c := NewMapWithCapacity[V](len(m.entries))
	for k, e := range m.entries {
		c.entries[k] = e
	}
	return c
}
