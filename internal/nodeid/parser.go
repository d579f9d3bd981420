// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single name segment, e.g. `calc` or `total_2`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// ValidName reports whether name is usable as a computer, input, value or
// event name.
func ValidName(name string) bool {
	return segmentRegex.MatchString(name)
}

// Parse creates an Address by parsing its canonical string representation.
func Parse(rawID string) (Address, error) {
	if rawID == "" {
		return Address{}, fmt.Errorf("identifier cannot be empty")
	}

	parts := strings.Split(rawID, ".")
	if len(parts) != 2 {
		return Address{}, fmt.Errorf("identifier %q must have the form computer.name", rawID)
	}

	for _, segment := range parts {
		if !ValidName(segment) {
			return Address{}, fmt.Errorf("invalid segment name %q in identifier %q", segment, rawID)
		}
	}

	return Address{Computer: parts[0], Local: parts[1]}, nil
}
