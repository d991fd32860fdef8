//go:build linux

package kernel

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// CreateVethPair creates a veth pair in the root namespace: name is the
// router-side end (later moved into the router's netns), peerName is the
// host-side end (spec §4.2 step 1).
func (e *LinuxExecutor) CreateVethPair(ctx context.Context, name, peerName string) error {
	veth := &netlink.Veth{
		LinkAttrs: netlink.LinkAttrs{Name: name},
		PeerName:  peerName,
	}
	if err := netlink.LinkAdd(veth); err != nil {
		return classify(name, "veth", err)
	}
	return nil
}

// DeleteLink removes a link by name in the root namespace. A missing
// link is treated as success.
func (e *LinuxExecutor) DeleteLink(ctx context.Context, name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		if isLinkNotFound(err) {
			return nil
		}
		return classify(name, "link", err)
	}
	if err := netlink.LinkDel(link); err != nil {
		return classify(name, "link", err)
	}
	return nil
}

// LinkExists reports whether a link by this name is already present in
// the root namespace, for Topology's pre-flight NameCollision check on
// switch bridge names (spec invariant I3, edge case S5).
func (e *LinuxExecutor) LinkExists(ctx context.Context, name string) (bool, error) {
	_, err := netlink.LinkByName(name)
	if err != nil {
		if isLinkNotFound(err) {
			return false, nil
		}
		return false, classify(name, "link", err)
	}
	return true, nil
}

// SetLinkNamespace moves a link from the root namespace into a named
// namespace (spec §4.2 step 2).
func (e *LinuxExecutor) SetLinkNamespace(ctx context.Context, linkName, nsName string) error {
	link, err := netlink.LinkByName(linkName)
	if err != nil {
		return classify(linkName, "link", err)
	}
	ns, err := netns.GetFromName(nsName)
	if err != nil {
		return classify(nsName, "netns", err)
	}
	defer ns.Close()

	if err := netlink.LinkSetNsFd(link, int(ns)); err != nil {
		return classify(linkName, nsName, err)
	}
	return nil
}

// SetLinkUp brings a link up. nsName is empty for a root-namespace link
// (e.g. a switch-bound veth peer), set for a link inside a router's
// namespace.
func (e *LinuxExecutor) SetLinkUp(ctx context.Context, nsName, linkName string) error {
	return withNamespace(nsName, func() error {
		link, err := netlink.LinkByName(linkName)
		if err != nil {
			return classify(linkName, "link", err)
		}
		if err := netlink.LinkSetUp(link); err != nil {
			return classify(linkName, "link", err)
		}
		return nil
	})
}

// SetLinkMAC assigns a MAC address to a link inside nsName.
func (e *LinuxExecutor) SetLinkMAC(ctx context.Context, nsName, linkName string, mac net.HardwareAddr) error {
	return withNamespace(nsName, func() error {
		link, err := netlink.LinkByName(linkName)
		if err != nil {
			return classify(linkName, "link", err)
		}
		if err := netlink.LinkSetHardwareAddr(link, mac); err != nil {
			return classify(linkName, "link", err)
		}
		return nil
	})
}

// AddAddr assigns an address to a link inside nsName (spec §4.2 step 6;
// the caller must have already brought the link up, step 4).
func (e *LinuxExecutor) AddAddr(ctx context.Context, nsName, linkName string, addr *net.IPNet) error {
	return withNamespace(nsName, func() error {
		link, err := netlink.LinkByName(linkName)
		if err != nil {
			return classify(linkName, "link", err)
		}
		if err := netlink.AddrAdd(link, &netlink.Addr{IPNet: addr}); err != nil {
			if errors.Is(err, syscall.EEXIST) {
				return nil
			}
			return classify(linkName, addr.String(), err)
		}
		return nil
	})
}

// CreateBridge creates a Linux bridge and brings it up (spec §4.4).
func (e *LinuxExecutor) CreateBridge(ctx context.Context, name string) error {
	br := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: name}}
	if err := netlink.LinkAdd(br); err != nil {
		return classify(name, "bridge", err)
	}
	if err := netlink.LinkSetUp(br); err != nil {
		return classify(name, "bridge", err)
	}
	return nil
}

// DeleteBridge removes a bridge by name. A missing bridge is treated as
// success.
func (e *LinuxExecutor) DeleteBridge(ctx context.Context, name string) error {
	return e.DeleteLink(ctx, name)
}

// AttachToBridge attaches a link to a bridge (spec §4.2 step 3); the
// Topology scheduler guarantees the bridge already exists and is up
// (invariant I4) before calling this.
func (e *LinuxExecutor) AttachToBridge(ctx context.Context, bridgeName, linkName string) error {
	bridge, err := netlink.LinkByName(bridgeName)
	if err != nil {
		return classify(bridgeName, "bridge", err)
	}
	link, err := netlink.LinkByName(linkName)
	if err != nil {
		return classify(linkName, "link", err)
	}
	if err := netlink.LinkSetMaster(link, bridge); err != nil {
		return classify(linkName, bridgeName, err)
	}
	return nil
}

func isLinkNotFound(err error) bool {
	var lnf netlink.LinkNotFoundError
	return errors.As(err, &lnf)
}
