package computer

import (
	"github.com/zclconf/go-cty/cty"
)

// ComputeFunc derives a value from a read-only snapshot of its declared
// dependencies. It must be pure with respect to the graph: same snapshot,
// same result.
type ComputeFunc func(snap Snapshot) (cty.Value, error)

// HandlerFunc handles an event that takes no payload. It returns the input
// assignments the event produces, keyed by input name.
type HandlerFunc func(snap Snapshot) (map[string]cty.Value, error)

// PayloadHandlerFunc handles an event that accepts a caller-supplied
// payload alongside the snapshot.
type PayloadHandlerFunc func(snap Snapshot, payload cty.Value) (map[string]cty.Value, error)

// Input describes one externally settable leaf of a computer.
type Input struct {
	// Name is unique within the computer, shared namespace with values.
	Name string
	// Initial is the optional starting value. cty.NilVal means the input
	// starts unset.
	Initial cty.Value
	// Description is optional free-form documentation.
	Description string
}

// HasInitial reports whether the input declares a starting value.
func (i Input) HasInitial() bool {
	return i.Initial != cty.NilVal
}

// Value describes one derived entry of a computer.
type Value struct {
	// Name is unique within the computer, shared namespace with inputs.
	Name string
	// DependsOn lists the local input/value names the compute function
	// reads. It is required; a nil slice fails validation. An explicitly
	// empty slice declares a constant.
	DependsOn []string
	// Compute derives the value from a snapshot of DependsOn entries.
	Compute ComputeFunc
	// Description is optional free-form documentation.
	Description string
}

// Event describes a named handler that translates a snapshot (and an
// optional payload) into a batch of input assignments.
type Event struct {
	// Name is unique among the computer's events.
	Name string
	// Handler must be a HandlerFunc or a PayloadHandlerFunc (or an untyped
	// func with one of those signatures). Any other shape fails validation.
	Handler any
}

// Spec is the immutable, parsed-once description of one computer.
// Declaration order of the slices is significant: it is the tie-break used
// for deterministic recomputation ordering.
type Spec struct {
	Name   string
	Inputs []Input
	Values []Value
	Events []Event
}

// InputNamed returns the input descriptor with the given name.
func (s *Spec) InputNamed(name string) (Input, bool) {
	for _, in := range s.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// ValueNamed returns the value descriptor with the given name.
func (s *Spec) ValueNamed(name string) (Value, bool) {
	for _, v := range s.Values {
		if v.Name == name {
			return v, true
		}
	}
	return Value{}, false
}

// EventNamed returns the event descriptor with the given name.
func (s *Spec) EventNamed(name string) (Event, bool) {
	for _, e := range s.Events {
		if e.Name == name {
			return e, true
		}
	}
	return Event{}, false
}

// HasLocal reports whether name resolves to an input or value of this spec.
func (s *Spec) HasLocal(name string) bool {
	if _, ok := s.InputNamed(name); ok {
		return true
	}
	_, ok := s.ValueNamed(name)
	return ok
}
