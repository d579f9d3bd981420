// internal/nodeid/address.go
package nodeid

// String serializes the Address into its canonical `computer.local` form.
func (a Address) String() string {
	return a.Computer + "." + a.Local
}

// Equal checks for equality between two Addresses.
func (a Address) Equal(other Address) bool {
	return a == other
}

// IsZero reports whether the address has not been populated.
func (a Address) IsZero() bool {
	return a.Computer == "" && a.Local == ""
}
