package executor

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/calcgrid/internal/computer"
	"github.com/vk/calcgrid/internal/graph"
	"github.com/vk/calcgrid/internal/nodeid"
	"github.com/vk/calcgrid/internal/store"
)

// Executor holds the registered computers, their value stores, the merged
// dependency graph, and the current frame transaction state.
type Executor struct {
	graph  *graph.Graph
	specs  map[string]*computer.Spec
	stores map[string]*store.Store
	// names preserves registration order for deterministic iteration.
	names []string

	// topo is the frozen global order; nil until Initialize.
	topo []nodeid.Address

	// frame is the currently open frame, or nil when idle.
	frame *frame
}

// New creates an empty Executor.
func New() *Executor {
	return &Executor{
		graph:  graph.New(),
		specs:  make(map[string]*computer.Spec),
		stores: make(map[string]*store.Store),
	}
}

// AddComputer registers a validated instance of spec under the given name
// (the spec's own name when name is empty). Overrides replace declared
// input initial values for this instance only. Registration fails without
// side effects on an invalid spec, a duplicate name, or a cycle among the
// spec's values, and is rejected once the executor is initialized.
func (e *Executor) AddComputer(spec *computer.Spec, name string, overrides map[string]cty.Value) error {
	if e.initialized() {
		return usageErrf("add computer", "executor is already initialized; the graph is frozen")
	}

	instance := instantiate(spec, name, overrides)
	if err := instance.Validate(); err != nil {
		return err
	}
	for in := range overrides {
		if _, ok := instance.InputNamed(in); !ok {
			return usageErrf("add computer", "initial override names %q, which is not an input of computer %q", in, instance.Name)
		}
	}

	if err := e.graph.AddComputer(instance); err != nil {
		return err
	}

	e.specs[instance.Name] = instance
	e.stores[instance.Name] = store.New(instance)
	e.names = append(e.names, instance.Name)
	return nil
}

// Connect wires the source computer's value to the target computer's
// input. The target must not be connection-bound already and must not
// declare its own initial value; a connection is its only writer.
func (e *Executor) Connect(source, target nodeid.Address) error {
	if e.initialized() {
		return usageErrf("connect", "executor is already initialized; the graph is frozen")
	}

	if _, ok := e.specs[source.Computer]; !ok {
		return usageErrf("connect", "unknown computer %q", source.Computer)
	}
	tgtSpec, ok := e.specs[target.Computer]
	if !ok {
		return usageErrf("connect", "unknown computer %q", target.Computer)
	}
	if in, ok := tgtSpec.InputNamed(target.Local); ok && in.HasInitial() {
		return usageErrf("connect", "input %s declares an initial value and cannot also be connection-fed", target)
	}

	return e.graph.Connect(source, target)
}

// Initialize freezes the graph, then commits one frame holding every
// declared initial value, materializing the whole graph for the first
// time. It may be called exactly once.
func (e *Executor) Initialize() (*CommitResult, error) {
	if e.initialized() {
		return nil, usageErrf("initialize", "executor is already initialized")
	}
	if e.frame != nil {
		return nil, usageErrf("initialize", "a frame is open")
	}

	order, err := e.graph.Order()
	if err != nil {
		return nil, err
	}
	e.topo = order

	f := newFrame()
	for _, name := range e.names {
		spec := e.specs[name]
		for _, in := range spec.Inputs {
			if in.HasInitial() {
				f.set(nodeid.New(name, in.Name), in.Initial)
			}
		}
	}
	return e.commit(f, true)
}

// Computers returns the registered computer names in registration order.
func (e *Executor) Computers() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// CurrentValues returns the computer's Set and Fresh entries, plus a
// parallel map of the entries currently in Error. Unset and Pending
// entries are absent from both.
func (e *Executor) CurrentValues(computerName string) (map[string]cty.Value, map[string]error, error) {
	st, ok := e.stores[computerName]
	if !ok {
		return nil, nil, usageErrf("current values", "unknown computer %q", computerName)
	}
	vals, errs := st.CurrentValues()
	return vals, errs, nil
}

// State returns the state of one input or value, for callers that need to
// distinguish Unset/Pending/Error beyond what CurrentValues exposes.
func (e *Executor) State(id nodeid.Address) (store.State, error) {
	st, ok := e.stores[id.Computer]
	if !ok {
		return store.State{}, usageErrf("state", "unknown computer %q", id.Computer)
	}
	s, ok := st.Get(id.Local)
	if !ok {
		return store.State{}, usageErrf("state", "computer %q has no input or value %q", id.Computer, id.Local)
	}
	return s, nil
}

// Snapshot returns the computer's full current snapshot, as handed to
// event handlers.
func (e *Executor) Snapshot(computerName string) (computer.Snapshot, error) {
	st, ok := e.stores[computerName]
	if !ok {
		return computer.Snapshot{}, usageErrf("snapshot", "unknown computer %q", computerName)
	}
	return st.Snapshot(), nil
}

func (e *Executor) initialized() bool {
	return e.topo != nil
}

// instantiate clones spec under an instance name with initial overrides
// applied. The clone is shallow except for the input slice, which is
// copied so the shared spec stays immutable.
func instantiate(spec *computer.Spec, name string, overrides map[string]cty.Value) *computer.Spec {
	instance := *spec
	if name != "" {
		instance.Name = name
	}
	if len(overrides) > 0 {
		instance.Inputs = make([]computer.Input, len(spec.Inputs))
		copy(instance.Inputs, spec.Inputs)
		for i, in := range instance.Inputs {
			if v, ok := overrides[in.Name]; ok {
				instance.Inputs[i].Initial = v
			}
		}
	}
	return &instance
}
