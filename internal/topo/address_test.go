package topo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name      string
		addr      string
		prefixLen int
		family    Family
		wantErr   bool
	}{
		{"valid v4", "10.0.0.1", 24, FamilyV4, false},
		{"valid v6", "fd00::1", 64, FamilyV6, false},
		{"malformed address", "not-an-ip", 24, FamilyV4, true},
		{"v6 literal declared as v4", "fd00::1", 64, FamilyV4, true},
		{"v4 literal declared as v6", "10.0.0.1", 24, FamilyV6, true},
		{"v4 prefix out of range", "10.0.0.1", 33, FamilyV4, true},
		{"v6 prefix out of range", "fd00::1", 129, FamilyV6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseAddress(tt.addr, tt.prefixLen, tt.family)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.prefixLen, addr.PrefixLen)
			assert.NotNil(t, addr.IPNet())
		})
	}
}
