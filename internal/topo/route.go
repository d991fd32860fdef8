package topo

import (
	"fmt"
	"net"

	"nsnetsim/pkg/nerrors"
)

// Route is a static route attached to a RouterNode, installed after its
// interfaces are up and addressed (spec §3 Route, §4.5).
type Route struct {
	Family      Family
	Destination *net.IPNet
	Gateway     net.IP // optional; mutually meaningful with Device
	Device      string // optional; must name an interface on the owning router
}

// ParseRoute parses a destination CIDR and a via value that is either a
// gateway IP or a device name, failing fast on a malformed destination the
// same way ParseAddress does for addresses.
func ParseRoute(destination, via string) (Route, error) {
	_, dst, err := net.ParseCIDR(destination)
	if err != nil {
		return Route{}, nerrors.New(nerrors.InvariantViolation, "", destination,
			fmt.Errorf("malformed route destination %q: %w", destination, err))
	}

	family := FamilyV4
	if dst.IP.To4() == nil {
		family = FamilyV6
	}

	if via == "" {
		return Route{}, nerrors.New(nerrors.InvariantViolation, "", destination,
			fmt.Errorf("route to %q needs a gateway or device", destination))
	}

	if gw := net.ParseIP(via); gw != nil {
		return Route{Family: family, Destination: dst, Gateway: gw}, nil
	}

	if err := ValidateName(via); err != nil {
		return Route{}, nerrors.New(nerrors.InvariantViolation, "", via,
			fmt.Errorf("via %q is neither a valid gateway address nor an interface name", via))
	}
	return Route{Family: family, Destination: dst, Device: via}, nil
}

func (r Route) label() string {
	if r.Device != "" {
		return fmt.Sprintf("%s via %s", r.Destination, r.Device)
	}
	return fmt.Sprintf("%s via %s", r.Destination, r.Gateway)
}
