package graph

import (
	"sort"

	"github.com/vk/calcgrid/internal/nodeid"
)

// Order returns a total order over all nodes in which every node appears
// after its dependencies. Ties are broken by insertion ordinal, so the
// order is stable across runs with the same specs and connections. A
// cyclic graph yields a CycleError; callers that only mutate through
// AddComputer/Connect never see one.
func (g *Graph) Order() ([]nodeid.Address, error) {
	indegree := make(map[string]int, len(g.nodes))
	for key, n := range g.nodes {
		indegree[key] = len(n.deps)
	}

	// ready holds nodes with no unprocessed dependencies, kept sorted by
	// ordinal so the smallest is always taken first.
	var ready []*node
	for _, n := range g.nodes {
		if indegree[n.id.String()] == 0 {
			ready = append(ready, n)
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].ord < ready[j].ord })

	order := make([]nodeid.Address, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n.id)

		for _, dependent := range sortedNodes(n.dependents) {
			key := dependent.id.String()
			indegree[key]--
			if indegree[key] == 0 {
				ready = insertByOrd(ready, dependent)
			}
		}
	}

	if len(order) != len(g.nodes) {
		// Kahn stalled, so a cycle exists among the unprocessed nodes.
		return nil, g.findCycle(indegree)
	}

	return order, nil
}

// detectCycles checks the whole graph and returns a CycleError naming the
// offending node sequence, or nil.
func (g *Graph) detectCycles() error {
	_, err := g.Order()
	return err
}

// findCycle walks the residual subgraph left over by a stalled Kahn
// traversal and extracts one concrete cycle path.
func (g *Graph) findCycle(indegree map[string]int) *CycleError {
	// Depth-first search restricted to nodes still holding dependencies;
	// every such node lies on or leads into a cycle.
	inStack := make(map[string]int)
	var stack []*node

	var visit func(n *node) *CycleError
	visit = func(n *node) *CycleError {
		key := n.id.String()
		if pos, ok := inStack[key]; ok {
			cycle := &CycleError{}
			for _, m := range stack[pos:] {
				cycle.Nodes = append(cycle.Nodes, m.id.String())
			}
			cycle.Nodes = append(cycle.Nodes, key)
			return cycle
		}

		inStack[key] = len(stack)
		stack = append(stack, n)
		defer func() {
			stack = stack[:len(stack)-1]
			delete(inStack, key)
		}()

		for _, dep := range sortedNodes(n.deps) {
			if indegree[dep.id.String()] == 0 {
				continue
			}
			if cycle := visit(dep); cycle != nil {
				return cycle
			}
		}
		return nil
	}

	for _, n := range sortedNodes(g.nodes) {
		if indegree[n.id.String()] == 0 {
			continue
		}
		if cycle := visit(n); cycle != nil {
			return cycle
		}
	}

	// Unreachable when called from Order with a genuinely stalled state.
	return &CycleError{}
}

func sortedNodes(m map[string]*node) []*node {
	nodes := make([]*node, 0, len(m))
	for _, n := range m {
		nodes = append(nodes, n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ord < nodes[j].ord })
	return nodes
}

func insertByOrd(ready []*node, n *node) []*node {
	i := sort.Search(len(ready), func(i int) bool { return ready[i].ord > n.ord })
	ready = append(ready, nil)
	copy(ready[i+1:], ready[i:])
	ready[i] = n
	return ready
}
