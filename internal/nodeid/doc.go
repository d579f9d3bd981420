// internal/nodeid/doc.go

/*
Package nodeid provides a structured, type-safe representation for node
identifiers within the system, based on the canonical format
`computer.local`.

The format is a computer name and a local input/value name joined by a
single dot, e.g. `calc.sum` or `query.filters`.

This package enforces the identifier schema and centralizes all
formatting and parsing logic, improving maintainability and robustness.
*/
package nodeid
