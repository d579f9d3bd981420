package executor

import (
	"sort"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/calcgrid/internal/nodeid"
)

// ApplyEvent looks up the named event on the computer's spec, invokes its
// handler against the full current snapshot, and applies the returned
// input assignments as one ordinary frame. The returned mapping is
// validated before any frame opens, so a bad handler result leaves every
// store untouched. An empty mapping is valid and recomputes nothing.
//
// Pass cty.NilVal for payload when the event takes none; supplying a
// payload to a payload-less handler is a contract violation.
func (e *Executor) ApplyEvent(computerName, eventName string, payload cty.Value) (*CommitResult, error) {
	if !e.initialized() {
		return nil, usageErrf("apply event", "executor is not initialized")
	}
	if e.frame != nil {
		return nil, usageErrf("apply event", "a frame is already open")
	}

	spec, ok := e.specs[computerName]
	if !ok {
		return nil, usageErrf("apply event", "unknown computer %q", computerName)
	}
	event, ok := spec.EventNamed(eventName)
	if !ok {
		return nil, usageErrf("apply event", "computer %q has no event %q", computerName, eventName)
	}

	snap := e.stores[computerName].Snapshot()

	snapHandler, payloadHandler := event.Handlers()
	var (
		assignments map[string]cty.Value
		err         error
	)
	if payloadHandler != nil {
		assignments, err = payloadHandler(snap, payload)
	} else {
		if payload != cty.NilVal {
			return nil, usageErrf("apply event", "event %q of computer %q takes no payload", eventName, computerName)
		}
		assignments, err = snapHandler(snap)
	}
	if err != nil {
		return nil, &ComputeError{Node: nodeid.New(computerName, eventName), Cause: err}
	}

	// Every key must name an input of this computer; a value name or an
	// unknown name fails before any frame opens.
	for key := range assignments {
		if _, ok := spec.InputNamed(key); ok {
			continue
		}
		if _, isValue := spec.ValueNamed(key); isValue {
			return nil, usageErrf("apply event", "event %q returned %q, which is a value and cannot be assigned", eventName, key)
		}
		return nil, usageErrf("apply event", "event %q returned %q, which is not an input of computer %q", eventName, key, computerName)
	}

	f := newFrame()
	for _, key := range sortedKeys(assignments) {
		id := nodeid.New(computerName, key)
		if src, bound := e.graph.ConnectionSource(id); bound {
			return nil, usageErrf("apply event", "event %q assigns input %s, which is connection-fed from %s", eventName, id, src)
		}
		f.set(id, assignments[key])
	}
	return e.commit(f, false)
}

func sortedKeys(m map[string]cty.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
