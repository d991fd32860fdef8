package topo

import "net"

// Interface belongs to exactly one RouterNode for its entire lifetime
// (spec §3 invariant 2). peerName is resolved once, during Topology
// validation, once every interface in the topology is known (names.go
// derivePeerName).
type Interface struct {
	name       string
	mac        net.HardwareAddr
	peerName   string
	addresses  []Address
	switchName string // by name only (spec §9 "back-references without cycles")
}

// Name is the interface's name inside its router's namespace.
func (i *Interface) Name() string { return i.name }

// PeerName is the host-side veth end name, empty until Topology validation
// has resolved it.
func (i *Interface) PeerName() string { return i.peerName }

// SwitchName names the SwitchNode this interface joins, or "" if it is a
// direct root-namespace endpoint.
func (i *Interface) SwitchName() string { return i.switchName }

// Addresses returns the interface's addresses in insertion order.
func (i *Interface) Addresses() []Address { return append([]Address(nil), i.addresses...) }
