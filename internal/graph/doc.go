// Package graph builds and validates the merged dependency graph of an
// executor: one DAG spanning every registered computer's input and value
// nodes, plus the cross-computer connection edges that wire one computer's
// value to another computer's input.
//
// Connection edges are first-class edges of the same graph, not a separate
// post-pass; a cycle that only exists across computers is caught exactly
// like a local one. Every structural mutation (AddComputer, Connect) is
// checked for cycles immediately and rolled back on failure, so an error
// never leaves the graph modified.
//
// The graph also owns the deterministic total order used for
// recomputation: a Kahn traversal that breaks ties by insertion ordinal,
// i.e. computer registration order first, then declaration order within
// the computer. The same set of specs and connections always yields the
// same order.
package graph
