package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vk/calcgrid/internal/computer"
	"github.com/vk/calcgrid/internal/nodeid"
)

// Kind distinguishes the two node flavors of the graph.
type Kind int

const (
	// KindInput marks an externally settable leaf node.
	KindInput Kind = iota
	// KindValue marks a derived node with a compute function.
	KindValue
)

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using addresses),
// not by direct struct manipulation.
type node struct {
	// id is the unique identifier for the node.
	id nodeid.Address
	// kind records whether the node is an input or a value.
	kind Kind
	// ord is the global insertion ordinal, the deterministic tie-break.
	ord int
	// deps holds the nodes this node reads (predecessors). For a value
	// these are its declared dependencies; for an input, at most one
	// connection source.
	deps map[string]*node
	// dependents holds the nodes that read this node (successors).
	dependents map[string]*node
}

// CycleError reports a dependency cycle, with the offending node sequence
// in dependency order: each entry depends on the next, and the first entry
// is repeated at the end to close the loop.
type CycleError struct {
	Nodes []string
}

// Error implements the error interface for CycleError.
func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Nodes, " -> "))
}

// DuplicateConnectionError reports an attempt to bind a second connection
// source to an input that already has one.
type DuplicateConnectionError struct {
	Target   nodeid.Address
	Existing nodeid.Address
}

// Error implements the error interface for DuplicateConnectionError.
func (e *DuplicateConnectionError) Error() string {
	return fmt.Sprintf("input %s already has a connection from %s", e.Target, e.Existing)
}

// Graph is the union of all per-computer dependency edges and the global
// connection edges. It is mutated only by AddComputer and Connect; once an
// executor freezes its order, the graph is read-only.
type Graph struct {
	nodes     map[string]*node
	computers map[string]struct{}
	nextOrd   int
}

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes:     make(map[string]*node),
		computers: make(map[string]struct{}),
	}
}

// AddComputer inserts one node per input and value of the spec, plus the
// value dependency edges. The spec must already be validated. On any
// failure (including a cycle among the spec's own values) the graph is
// left exactly as it was.
func (g *Graph) AddComputer(spec *computer.Spec) error {
	if _, dup := g.computers[spec.Name]; dup {
		return fmt.Errorf("computer %q is already registered", spec.Name)
	}

	startOrd := g.nextOrd

	// Inputs first, then values, both in declaration order. This is what
	// makes the ordinal tie-break reproduce declaration order.
	for _, in := range spec.Inputs {
		g.insert(nodeid.New(spec.Name, in.Name), KindInput)
	}
	for _, v := range spec.Values {
		g.insert(nodeid.New(spec.Name, v.Name), KindValue)
	}
	for _, v := range spec.Values {
		valueNode := g.nodes[nodeid.New(spec.Name, v.Name).String()]
		for _, dep := range v.DependsOn {
			depNode := g.nodes[nodeid.New(spec.Name, dep).String()]
			valueNode.deps[depNode.id.String()] = depNode
			depNode.dependents[valueNode.id.String()] = valueNode
		}
	}

	if err := g.detectCycles(); err != nil {
		g.removeComputer(spec.Name, startOrd)
		return err
	}

	g.computers[spec.Name] = struct{}{}
	return nil
}

// Connect inserts a connection edge from a source value node to a target
// input node. A target input accepts at most one connection. On failure
// (unknown node, wrong kind, duplicate target, or a cross-computer cycle)
// the graph is left unmodified.
func (g *Graph) Connect(source, target nodeid.Address) error {
	srcNode, ok := g.nodes[source.String()]
	if !ok {
		return fmt.Errorf("connection source %s does not exist", source)
	}
	if srcNode.kind != KindValue {
		return fmt.Errorf("connection source %s is an input; only values can be connected", source)
	}

	tgtNode, ok := g.nodes[target.String()]
	if !ok {
		return fmt.Errorf("connection target %s does not exist", target)
	}
	if tgtNode.kind != KindInput {
		return fmt.Errorf("connection target %s is a value; only inputs can be connected", target)
	}

	for _, existing := range tgtNode.deps {
		return &DuplicateConnectionError{Target: target, Existing: existing.id}
	}

	tgtNode.deps[source.String()] = srcNode
	srcNode.dependents[target.String()] = tgtNode

	if err := g.detectCycles(); err != nil {
		delete(tgtNode.deps, source.String())
		delete(srcNode.dependents, target.String())
		return err
	}

	return nil
}

// NodeKind returns the kind of the node with the given address.
func (g *Graph) NodeKind(id nodeid.Address) (Kind, bool) {
	n, ok := g.nodes[id.String()]
	if !ok {
		return 0, false
	}
	return n.kind, true
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Dependencies returns the addresses the given node reads, ordered by
// insertion ordinal.
func (g *Graph) Dependencies(id nodeid.Address) []nodeid.Address {
	n, ok := g.nodes[id.String()]
	if !ok {
		return nil
	}
	return sortedAddrs(n.deps)
}

// Dependents returns the addresses that read the given node, ordered by
// insertion ordinal.
func (g *Graph) Dependents(id nodeid.Address) []nodeid.Address {
	n, ok := g.nodes[id.String()]
	if !ok {
		return nil
	}
	return sortedAddrs(n.dependents)
}

// ConnectionSource returns the value feeding the given input through a
// connection, if one is bound.
func (g *Graph) ConnectionSource(target nodeid.Address) (nodeid.Address, bool) {
	n, ok := g.nodes[target.String()]
	if !ok || n.kind != KindInput {
		return nodeid.Address{}, false
	}
	for _, src := range n.deps {
		return src.id, true
	}
	return nodeid.Address{}, false
}

func (g *Graph) insert(id nodeid.Address, kind Kind) {
	g.nodes[id.String()] = &node{
		id:         id,
		kind:       kind,
		ord:        g.nextOrd,
		deps:       make(map[string]*node),
		dependents: make(map[string]*node),
	}
	g.nextOrd++
}

// removeComputer rolls back a failed AddComputer. The computer's nodes
// cannot have edges to or from other computers yet, so dropping the nodes
// and resetting the ordinal counter restores the previous state.
func (g *Graph) removeComputer(name string, startOrd int) {
	for key, n := range g.nodes {
		if n.id.Computer == name {
			delete(g.nodes, key)
		}
	}
	g.nextOrd = startOrd
}

func sortedAddrs(m map[string]*node) []nodeid.Address {
	nodes := make([]*node, 0, len(m))
	for _, n := range m {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ord < nodes[j].ord })

	addrs := make([]nodeid.Address, len(nodes))
	for i, n := range nodes {
		addrs[i] = n.id
	}
	return addrs
}
