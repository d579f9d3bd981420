package computer

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/calcgrid/internal/nodeid"
)

// SpecError describes a rejected computer specification. It is raised at
// build time and is fatal to that computer's registration.
type SpecError struct {
	Computer string
	Detail   string
}

// Error implements the error interface for SpecError.
func (e *SpecError) Error() string {
	return fmt.Sprintf("invalid specification for computer %q: %s", e.Computer, e.Detail)
}

func specErrf(computer, format string, args ...any) *SpecError {
	return &SpecError{Computer: computer, Detail: fmt.Sprintf(format, args...)}
}

// Validate performs a strict check of the spec against its own namespace.
// It verifies name syntax and uniqueness, that every value carries an
// explicit dependency set resolvable to a sibling input or value, and that
// every event handler has one of the two supported shapes. Cross-computer
// concerns (connections, cycles) are deferred to the graph builder.
func (s *Spec) Validate() error {
	if !nodeid.ValidName(s.Name) {
		return specErrf(s.Name, "invalid computer name %q", s.Name)
	}

	// Inputs and values share one namespace.
	locals := make(map[string]struct{}, len(s.Inputs)+len(s.Values))
	for _, in := range s.Inputs {
		if !nodeid.ValidName(in.Name) {
			return specErrf(s.Name, "invalid input name %q", in.Name)
		}
		if _, dup := locals[in.Name]; dup {
			return specErrf(s.Name, "duplicate name %q", in.Name)
		}
		locals[in.Name] = struct{}{}
	}
	for _, v := range s.Values {
		if !nodeid.ValidName(v.Name) {
			return specErrf(s.Name, "invalid value name %q", v.Name)
		}
		if _, dup := locals[v.Name]; dup {
			return specErrf(s.Name, "duplicate name %q", v.Name)
		}
		locals[v.Name] = struct{}{}
	}

	for _, v := range s.Values {
		if v.Compute == nil {
			return specErrf(s.Name, "value %q has no compute function", v.Name)
		}
		if v.DependsOn == nil {
			return specErrf(s.Name, "value %q declares no dependency set; an explicit (possibly empty) set is required", v.Name)
		}
		seen := make(map[string]struct{}, len(v.DependsOn))
		for _, dep := range v.DependsOn {
			if _, ok := locals[dep]; !ok {
				return specErrf(s.Name, "value %q depends on %q, which is not an input or value of this computer", v.Name, dep)
			}
			if _, dup := seen[dep]; dup {
				return specErrf(s.Name, "value %q lists dependency %q twice", v.Name, dep)
			}
			seen[dep] = struct{}{}
		}
	}

	events := make(map[string]struct{}, len(s.Events))
	for _, e := range s.Events {
		if !nodeid.ValidName(e.Name) {
			return specErrf(s.Name, "invalid event name %q", e.Name)
		}
		if _, dup := events[e.Name]; dup {
			return specErrf(s.Name, "duplicate event %q", e.Name)
		}
		events[e.Name] = struct{}{}

		if _, _, err := normalizeHandler(e.Handler); err != nil {
			return specErrf(s.Name, "event %q: %s", e.Name, err)
		}
	}

	return nil
}

// normalizeHandler coerces an event's declared handler into one of the two
// supported shapes. Exactly one of the returned funcs is non-nil on
// success.
func normalizeHandler(handler any) (HandlerFunc, PayloadHandlerFunc, error) {
	switch h := handler.(type) {
	case nil:
		return nil, nil, fmt.Errorf("no handler declared")
	case HandlerFunc:
		return h, nil, nil
	case PayloadHandlerFunc:
		return nil, h, nil
	case func(Snapshot) (map[string]cty.Value, error):
		return h, nil, nil
	case func(Snapshot, cty.Value) (map[string]cty.Value, error):
		return nil, h, nil
	}

	// Anything else is a shape mismatch; use reflection only to describe
	// what was actually supplied.
	t := reflect.TypeOf(handler)
	if t.Kind() == reflect.Func {
		return nil, nil, fmt.Errorf("handler must take (Snapshot) or (Snapshot, payload), got a func with %d argument(s)", t.NumIn())
	}
	return nil, nil, fmt.Errorf("handler must be a func, got %s", t)
}

// Handlers returns the event's handler in normalized form. The spec must
// have passed Validate.
func (e Event) Handlers() (HandlerFunc, PayloadHandlerFunc) {
	snap, payload, err := normalizeHandler(e.Handler)
	if err != nil {
		panic(fmt.Sprintf("event %q used before validation: %v", e.Name, err))
	}
	return snap, payload
}

// AcceptsPayload reports whether the event's handler takes a payload
// argument. The spec must have passed Validate.
func (e Event) AcceptsPayload() bool {
	_, payload := e.Handlers()
	return payload != nil
}
