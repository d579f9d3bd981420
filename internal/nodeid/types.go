// internal/nodeid/types.go
package nodeid

// Address is the structured representation of a unique node identifier.
// A node is one input or one value belonging to one computer.
type Address struct {
	// Computer is the name of the owning computer.
	Computer string
	// Local is the input or value name within that computer.
	Local string
}

// New creates an Address from its two components.
func New(computer, local string) Address {
	return Address{Computer: computer, Local: local}
}
