// internal/nodeid/address_test.go
package nodeid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddress_String(t *testing.T) {
	testCases := []struct {
		name        string
		addr        Address
		expectedStr string
	}{
		{
			name:        "simple address",
			addr:        Address{Computer: "calc", Local: "sum"},
			expectedStr: "calc.sum",
		},
		{
			name:        "round trip through Parse",
			addr:        New("filters", "spec"),
			expectedStr: "filters.spec",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expectedStr, tc.addr.String())

			parsed, err := Parse(tc.addr.String())
			assert.NoError(t, err)
			assert.True(t, tc.addr.Equal(parsed))
		})
	}
}

func TestAddress_IsZero(t *testing.T) {
	assert.True(t, Address{}.IsZero())
	assert.False(t, New("calc", "sum").IsZero())
}
