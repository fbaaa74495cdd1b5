// Package datatable provides a string-keyed table of heterogeneous values
// with typed accessors.
package datatable

import (
	"maps"
	"slices"
)

// Table maps string keys to values of any type.
// The zero value is not usable; call New.
type Table struct {
	values map[string]any
}

// New creates an empty table.
func New() *Table {
	return &Table{values: make(map[string]any)}
}

// Set stores v under key, replacing any previous value.
func (t *Table) Set(key string, v any) {
	t.values[key] = v
}

// Has reports whether key is present.
func (t *Table) Has(key string) bool {
	_, ok := t.values[key]
	return ok
}

// Delete removes key.
func (t *Table) Delete(key string) {
	delete(t.values, key)
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.values)
}

// Keys returns the keys in sorted order.
func (t *Table) Keys() []string {
	return slices.Sorted(maps.Keys(t.values))
}

// Clear removes every entry.
func (t *Table) Clear() {
	clear(t.values)
}

// Get returns the value stored under key as a T. ok is false when the key
// is missing or holds a value of another type.
func Get[T any](t *Table, key string) (T, bool) {
	v, ok := t.values[key].(T)
	return v, ok
}

// GetOr returns the value stored under key as a T, or def.
func GetOr[T any](t *Table, key string, def T) T {
	if v, ok := Get[T](t, key); ok {
		return v
	}
	return def
}
