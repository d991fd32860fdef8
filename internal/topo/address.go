package topo

import (
	"fmt"
	"net"

	"nsnetsim/pkg/nerrors"
)

// Family is an address family, v4 or v6 (spec §3 Route/Address).
type Family int

const (
	FamilyV4 Family = iota
	FamilyV6
)

func (f Family) String() string {
	if f == FamilyV6 {
		return "v6"
	}
	return "v4"
}

// Address is one interface address: an IP, its prefix length, and the
// family it was declared under (spec §3 Interface.addresses).
type Address struct {
	IP        net.IP
	PrefixLen int
	Family    Family
}

// ParseAddress parses and validates an address at insertion time (spec §3:
// "Addresses are parsed at insertion; ill-formed values fail construction"),
// so a malformed address never reaches a kernel call (edge case S3). It
// rejects a parse failure, a family mismatch between the parsed IP and the
// declared family, and an out-of-range prefix length for that family.
func ParseAddress(addr string, prefixLen int, family Family) (Address, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return Address{}, nerrors.New(nerrors.InvariantViolation, "", addr,
			fmt.Errorf("malformed address %q", addr))
	}

	is4 := ip.To4() != nil
	maxPrefix := 128
	if family == FamilyV4 {
		maxPrefix = 32
		if !is4 {
			return Address{}, nerrors.New(nerrors.InvariantViolation, "", addr,
				fmt.Errorf("address %q is not an IPv4 address", addr))
		}
	} else {
		if is4 {
			return Address{}, nerrors.New(nerrors.InvariantViolation, "", addr,
				fmt.Errorf("address %q is not an IPv6 address", addr))
		}
	}

	if prefixLen < 0 || prefixLen > maxPrefix {
		return Address{}, nerrors.New(nerrors.InvariantViolation, "", addr,
			fmt.Errorf("prefix length %d out of range for %s", prefixLen, family))
	}

	return Address{IP: ip, PrefixLen: prefixLen, Family: family}, nil
}

// IPNet renders the address as a *net.IPNet suitable for kernel.Executor's
// AddAddr.
func (a Address) IPNet() *net.IPNet {
	bits := 32
	if a.Family == FamilyV6 {
		bits = 128
	}
	return &net.IPNet{IP: a.IP, Mask: net.CIDRMask(a.PrefixLen, bits)}
}

func (a Address) String() string {
	return fmt.Sprintf("%s/%d", a.IP, a.PrefixLen)
}
