package computer

import (
	"sort"

	"github.com/zclconf/go-cty/cty"
)

// Snapshot is a read-only view of a computer's currently known entries,
// passed to compute functions and event handlers. Entries that are unset,
// pending, or in error are simply absent; a compute function is never
// invoked while one of its declared dependencies is missing.
//
// The underlying cty.Values are themselves immutable, so a Snapshot can be
// shared with user code without copying.
type Snapshot struct {
	vals map[string]cty.Value
}

// NewSnapshot wraps vals in a read-only view. The map must not be mutated
// by the caller afterwards.
func NewSnapshot(vals map[string]cty.Value) Snapshot {
	return Snapshot{vals: vals}
}

// Get returns the entry with the given name, if present.
func (s Snapshot) Get(name string) (cty.Value, bool) {
	v, ok := s.vals[name]
	return v, ok
}

// Has reports whether the named entry is present.
func (s Snapshot) Has(name string) bool {
	_, ok := s.vals[name]
	return ok
}

// Len returns the number of entries in the snapshot.
func (s Snapshot) Len() int {
	return len(s.vals)
}

// Names returns the entry names in sorted order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.vals))
	for name := range s.vals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Map returns a fresh copy of the snapshot's entries, for callers that
// need a plain map (for example to build an hcl.EvalContext).
func (s Snapshot) Map() map[string]cty.Value {
	out := make(map[string]cty.Value, len(s.vals))
	for name, v := range s.vals {
		out[name] = v
	}
	return out
}
