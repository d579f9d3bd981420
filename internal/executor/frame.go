package executor

import (
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/calcgrid/internal/graph"
	"github.com/vk/calcgrid/internal/nodeid"
	"github.com/vk/calcgrid/internal/store"
)

// frame is an ephemeral batch of pending input assignments, invisible to
// every store until commit.
type frame struct {
	pending map[nodeid.Address]cty.Value
	// order keeps first-assignment order so commits iterate
	// deterministically.
	order []nodeid.Address
}

func newFrame() *frame {
	return &frame{pending: make(map[nodeid.Address]cty.Value)}
}

// set records an assignment; a repeat write to the same address within the
// frame wins over the earlier one.
func (f *frame) set(id nodeid.Address, v cty.Value) {
	if _, seen := f.pending[id]; !seen {
		f.order = append(f.order, id)
	}
	f.pending[id] = v
}

// CommitResult reports what one commit recomputed.
type CommitResult struct {
	// Recomputed lists every value visited by the pass, in recomputation
	// order, whatever state it ended in.
	Recomputed []nodeid.Address
	// Failed maps the node IDs that ended in the Error state to their
	// ComputeError. Independent parts of the dirty set still recomputed.
	Failed map[string]error
}

// StartFrame opens a frame. Only one frame may be open at a time; opening
// a second is a contract violation, not a silent merge.
func (e *Executor) StartFrame() error {
	if !e.initialized() {
		return usageErrf("start frame", "executor is not initialized")
	}
	if e.frame != nil {
		return usageErrf("start frame", "a frame is already open")
	}
	e.frame = newFrame()
	return nil
}

// SetInput records a pending assignment in the open frame. The name must
// be an input of a registered computer and must not be connection-bound
// (a connection is that input's only writer). Nothing becomes visible
// until CommitFrame.
func (e *Executor) SetInput(computerName, input string, v cty.Value) error {
	if e.frame == nil {
		return usageErrf("set input", "no frame is open")
	}

	spec, ok := e.specs[computerName]
	if !ok {
		return usageErrf("set input", "unknown computer %q", computerName)
	}
	if _, ok := spec.InputNamed(input); !ok {
		if _, isValue := spec.ValueNamed(input); isValue {
			return usageErrf("set input", "%q is a value of computer %q and cannot be set directly", input, computerName)
		}
		return usageErrf("set input", "computer %q has no input %q", computerName, input)
	}

	id := nodeid.New(computerName, input)
	if src, bound := e.graph.ConnectionSource(id); bound {
		return usageErrf("set input", "input %s is connection-fed from %s and cannot be set manually", id, src)
	}

	e.frame.set(id, v)
	return nil
}

// CommitFrame applies the open frame's assignments and recomputes the
// dirty set. The frame is consumed whether or not any value fails; input
// writes are all-or-nothing, value recomputation is per-node.
func (e *Executor) CommitFrame() (*CommitResult, error) {
	if e.frame == nil {
		return nil, usageErrf("commit frame", "no frame is open")
	}
	f := e.frame
	e.frame = nil
	return e.commit(f, false)
}

// commit is the core recomputation pass, shared by CommitFrame and
// Initialize. With allDirty set, every node is considered dirty; this is
// the first materialization of the graph.
func (e *Executor) commit(f *frame, allDirty bool) (*CommitResult, error) {
	// Step 1: apply every pending assignment. All-or-nothing is trivially
	// met here: assignments were validated when they entered the frame.
	for _, id := range f.order {
		if err := e.stores[id.Computer].SetInput(id.Local, f.pending[id]); err != nil {
			// Unreachable after SetInput-time validation.
			return nil, usageErrf("commit frame", "%v", err)
		}
	}

	// Step 2: the dirty set is the assigned inputs plus everything
	// transitively reachable over dependency and connection edges.
	dirty := e.dirtyClosure(f.order, allDirty)

	// Step 3: single pass over the frozen order. Nodes recomputed earlier
	// in the pass are visible to later ones.
	result := &CommitResult{Failed: make(map[string]error)}
	for _, id := range e.topo {
		if _, isDirty := dirty[id]; !isDirty {
			continue
		}
		kind, _ := e.graph.NodeKind(id)
		switch kind {
		case graph.KindInput:
			// Step 4: a connection-fed input picks up its source's fresh
			// result within the same pass. Directly assigned inputs were
			// already written in step 1.
			e.refreshConnectedInput(id)
		case graph.KindValue:
			e.recompute(id, result)
		}
	}

	return result, nil
}

func (e *Executor) dirtyClosure(seeds []nodeid.Address, allDirty bool) map[nodeid.Address]struct{} {
	dirty := make(map[nodeid.Address]struct{})
	if allDirty {
		for _, id := range e.topo {
			dirty[id] = struct{}{}
		}
		return dirty
	}

	queue := make([]nodeid.Address, 0, len(seeds))
	for _, id := range seeds {
		dirty[id] = struct{}{}
		queue = append(queue, id)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range e.graph.Dependents(id) {
			if _, seen := dirty[dep]; seen {
				continue
			}
			dirty[dep] = struct{}{}
			queue = append(queue, dep)
		}
	}
	return dirty
}

// refreshConnectedInput folds a connection source's latest result into its
// target input. A source that is not Fresh (pending or failed) leaves the
// input as it was.
func (e *Executor) refreshConnectedInput(id nodeid.Address) {
	src, bound := e.graph.ConnectionSource(id)
	if !bound {
		return
	}
	srcState, ok := e.stores[src.Computer].Get(src.Local)
	if !ok {
		return
	}
	if srcState.Kind == store.Fresh {
		// Validated shape: id is an input of its computer.
		_ = e.stores[id.Computer].SetInput(id.Local, srcState.Value)
	}
}

// recompute evaluates one dirty value against the current stores and
// records the outcome. A failure never aborts the pass.
func (e *Executor) recompute(id nodeid.Address, result *CommitResult) {
	st := e.stores[id.Computer]
	spec := e.specs[id.Computer]
	val, _ := spec.ValueNamed(id.Local)

	result.Recomputed = append(result.Recomputed, id)

	// A dependency in error poisons this value without invoking it.
	for _, dep := range val.DependsOn {
		depState, _ := st.Get(dep)
		if depState.Kind == store.Error {
			cerr := &ComputeError{Node: id, Cause: &ComputeError{Node: nodeid.New(id.Computer, dep), Cause: depState.Err}}
			_ = st.SetValueError(id.Local, cerr)
			result.Failed[id.String()] = cerr
			return
		}
	}

	// A missing (unset/pending) dependency parks the value; it is never
	// invoked with partial data.
	snap, ready := st.SnapshotOf(val.DependsOn)
	if !ready {
		_ = st.SetValuePending(id.Local)
		return
	}

	out, err := val.Compute(snap)
	if err != nil {
		cerr := &ComputeError{Node: id, Cause: err}
		_ = st.SetValueError(id.Local, cerr)
		result.Failed[id.String()] = cerr
		return
	}
	_ = st.SetValue(id.Local, out)
}
