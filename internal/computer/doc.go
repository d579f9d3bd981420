// Package computer defines the immutable specification model for a single
// computer: its externally settable inputs, its derived values, and the
// events that batch-mutate inputs.
//
// A Spec is a plain declarative description. It holds no mutable state and
// performs no evaluation itself; registering it with an executor creates
// the per-instance value store and graph nodes. Validation is a pure
// parse/check step: duplicate names, unresolved dependency names, and
// malformed event handler shapes are all rejected here, before any graph
// is touched.
//
// Dependency sets are explicit. Every value must declare the input/value
// names it reads; a nil DependsOn is a specification error, never treated
// as "no dependencies". Loaders that can infer the set (for example from
// an HCL expression's variable references) populate the field before the
// spec ever reaches validation.
package computer
