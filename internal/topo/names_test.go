package topo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsnetsim/pkg/nerrors"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid short name", "r1", false},
		{"valid with underscore and dash", "r1_a-b", false},
		{"exactly 15 bytes", "abcdefghijklmno", false},
		{"empty", "", true},
		{"16 bytes too long", "abcdefghijklmnop", true},
		{"contains a dot", "r1.a", true},
		{"contains a slash", "r1/a", true},
		{"contains a space", "r 1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				kind, ok := nerrors.KindOf(err)
				require.True(t, ok)
				assert.Equal(t, nerrors.InvariantViolation, kind)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDerivePeerName_ShortNamesPassThrough(t *testing.T) {
	taken := make(map[string]bool)
	name := derivePeerName("r1", "eth0", taken)
	assert.LessOrEqual(t, len(name), 15)
	assert.Equal(t, "r1-eth0", name)
	// Recording the result is the caller's job (Topology.validate).
	assert.False(t, taken[name])
}

func TestDerivePeerName_TruncatesLongCombination(t *testing.T) {
	taken := make(map[string]bool)
	name := derivePeerName("router-with-a-long-name", "eth0-long", taken)
	assert.LessOrEqual(t, len(name), 15)
}

func TestDerivePeerName_ResolvesCollisionsDeterministically(t *testing.T) {
	taken := make(map[string]bool)
	a := derivePeerName("router-with-a-long-name", "eth0-long", taken)
	taken[a] = true // as Topology.validate does after each derivation
	b := derivePeerName("router-with-a-long-name", "eth0-longer", taken)
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, len(a), 15)
	assert.LessOrEqual(t, len(b), 15)
}
