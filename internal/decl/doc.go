// Package decl is the HCL declaration layer: it discovers and parses
// .hcl files into computer specifications and connection declarations
// ready to register with an executor.
//
// A value's dependency set is inferred from its expression's variable
// references and written into the descriptor as an explicit set; authors
// can also override it with depends_on. Event set expressions may
// additionally reference the reserved name `payload`, which turns the
// event into a payload-accepting one.
//
// The layer is deliberately thin: expressions are kept raw at load time
// and evaluated per recomputation against the computer's current
// snapshot, with a fixed table of stdlib functions in scope.
package decl
