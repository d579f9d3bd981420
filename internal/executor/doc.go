// Package executor implements the reactive evaluation engine. An Executor
// owns a set of registered computers (each a validated spec plus a value
// store), the merged dependency graph across them, and the frame
// transaction protocol that drives recomputation.
//
// Lifecycle: register computers with AddComputer, wire them with Connect,
// then Initialize once. Initialize freezes the graph and its topological
// order, and commits every declared initial value as the first frame.
// After that, all change flows through frames (StartFrame, SetInput,
// CommitFrame) or through ApplyEvent, which is sugar over a frame.
//
// A commit applies the batched input assignments atomically, then
// recomputes exactly the dirty set (the transitive dependents of the
// assigned inputs) once per node, in the frozen order, with
// read-your-writes semantics within the pass. Connection results are
// folded into the same pass. A compute failure is contained per node:
// the failing value and its dependents go to the Error state, siblings
// still recompute, and the commit reports the failures in its result.
//
// An Executor is an explicitly constructed, explicitly passed value. It
// never blocks, performs no I/O, and supports a single writer; callers
// owning independent Executors may run them in parallel freely.
package executor
