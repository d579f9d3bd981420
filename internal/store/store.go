package store

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/calcgrid/internal/computer"
)

// StateKind enumerates the lifecycle states of a store entry.
type StateKind int

const (
	// Unset marks an input with no initial value that was never assigned.
	Unset StateKind = iota
	// Set marks an input holding an assigned value.
	Set
	// Pending marks a value whose dependency set is not fully available.
	Pending
	// Fresh marks a value computed from the latest snapshot of its
	// dependencies.
	Fresh
	// Error marks a value whose compute function failed, or whose
	// dependency is itself in error.
	Error
)

// String returns the lower-case name of the state kind.
func (k StateKind) String() string {
	switch k {
	case Unset:
		return "unset"
	case Set:
		return "set"
	case Pending:
		return "pending"
	case Fresh:
		return "fresh"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("StateKind(%d)", int(k))
	}
}

// State is the current state of one entry. Value is meaningful for
// Set/Fresh, Err for Error.
type State struct {
	Kind  StateKind
	Value cty.Value
	Err   error
}

// Store holds the current states of every input and value of one
// computer instance.
type Store struct {
	spec    *computer.Spec
	entries map[string]State
}

// New creates a store for the given spec with every input Unset and every
// value Pending. Initial values are not applied here; Initialize commits
// them through the ordinary frame path.
func New(spec *computer.Spec) *Store {
	s := &Store{
		spec:    spec,
		entries: make(map[string]State, len(spec.Inputs)+len(spec.Values)),
	}
	for _, in := range spec.Inputs {
		s.entries[in.Name] = State{Kind: Unset}
	}
	for _, v := range spec.Values {
		s.entries[v.Name] = State{Kind: Pending}
	}
	return s
}

// Spec returns the immutable specification this store was created from.
func (s *Store) Spec() *computer.Spec {
	return s.spec
}

// Get returns the state of the named entry.
func (s *Store) Get(name string) (State, bool) {
	st, ok := s.entries[name]
	return st, ok
}

// SetInput assigns an input's value. Writing a value name is a contract
// violation and fails without mutating anything.
func (s *Store) SetInput(name string, v cty.Value) error {
	if _, ok := s.spec.InputNamed(name); !ok {
		if _, isValue := s.spec.ValueNamed(name); isValue {
			return fmt.Errorf("%q is a value of computer %q and cannot be set directly", name, s.spec.Name)
		}
		return fmt.Errorf("computer %q has no input %q", s.spec.Name, name)
	}
	s.entries[name] = State{Kind: Set, Value: v}
	return nil
}

// SetValue records a successful recomputation result. Only the executor's
// commit pass calls this.
func (s *Store) SetValue(name string, v cty.Value) error {
	if err := s.checkValueName(name); err != nil {
		return err
	}
	s.entries[name] = State{Kind: Fresh, Value: v}
	return nil
}

// SetValueError records a failed recomputation.
func (s *Store) SetValueError(name string, cause error) error {
	if err := s.checkValueName(name); err != nil {
		return err
	}
	s.entries[name] = State{Kind: Error, Err: cause}
	return nil
}

// SetValuePending marks a value as waiting on an unavailable dependency.
func (s *Store) SetValuePending(name string) error {
	if err := s.checkValueName(name); err != nil {
		return err
	}
	s.entries[name] = State{Kind: Pending}
	return nil
}

func (s *Store) checkValueName(name string) error {
	if _, ok := s.spec.ValueNamed(name); !ok {
		return fmt.Errorf("computer %q has no value %q", s.spec.Name, name)
	}
	return nil
}

// Snapshot returns a read-only view of every Set and Fresh entry. Unset,
// Pending and Error entries are absent.
func (s *Store) Snapshot() computer.Snapshot {
	vals := make(map[string]cty.Value)
	for name, st := range s.entries {
		if st.Kind == Set || st.Kind == Fresh {
			vals[name] = st.Value
		}
	}
	return computer.NewSnapshot(vals)
}

// SnapshotOf builds a snapshot restricted to the given names, reporting
// whether every one of them is available. Callers use the bool to decide
// between invoking a compute function and marking its value Pending.
func (s *Store) SnapshotOf(names []string) (computer.Snapshot, bool) {
	vals := make(map[string]cty.Value, len(names))
	for _, name := range names {
		st, ok := s.entries[name]
		if !ok || (st.Kind != Set && st.Kind != Fresh) {
			return computer.Snapshot{}, false
		}
		vals[name] = st.Value
	}
	return computer.NewSnapshot(vals), true
}

// CurrentValues returns the Set/Fresh entries as a plain map, plus a
// parallel map of the entries currently in Error.
func (s *Store) CurrentValues() (map[string]cty.Value, map[string]error) {
	vals := make(map[string]cty.Value)
	errs := make(map[string]error)
	for name, st := range s.entries {
		switch st.Kind {
		case Set, Fresh:
			vals[name] = st.Value
		case Error:
			errs[name] = st.Err
		}
	}
	return vals, errs
}
