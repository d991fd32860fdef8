package topo

import (
	"fmt"
	"hash/fnv"
	"regexp"

	"nsnetsim/pkg/nerrors"
)

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidateName enforces spec §3's name rule, shared by node names and
// interface names: 1-15 bytes, matching [A-Za-z0-9_-]+. Node names double
// as netns/bridge names verbatim, so this also bounds those within the
// kernel's 15-byte limit.
func ValidateName(name string) error {
	if len(name) < 1 || len(name) > 15 {
		return nerrors.New(nerrors.InvariantViolation, name, "name",
			fmt.Errorf("name must be 1-15 bytes, got %d", len(name)))
	}
	if !nameRE.MatchString(name) {
		return nerrors.New(nerrors.InvariantViolation, name, "name",
			fmt.Errorf("name must match [A-Za-z0-9_-]+"))
	}
	return nil
}

// derivePeerName computes an Interface's host-side veth peer name (spec
// §4.2, §6): "<router>-<iface>" truncated to 15 bytes, or, if that
// truncation collides with a name already taken in this Topology, the
// tail replaced with a 4-hex-digit FNV-1a hash of the full untruncated
// name (spec §9's "derivation must be deterministic for a single
// process").
func derivePeerName(router, iface string, taken map[string]bool) string {
	base := router + "-" + iface
	name := truncate(base, 15)
	if !taken[name] {
		return name
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(base))
	suffix := fmt.Sprintf("%04x", h.Sum32()&0xffff)
	return truncate(base, 15-len(suffix)) + suffix
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
