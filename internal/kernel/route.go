//go:build linux

package kernel

import (
	"context"
	"errors"
	"net"
	"syscall"

	"github.com/vishvananda/netlink"
)

// AddRoute installs a static route inside nsName, attached either to a
// gateway or a device (spec §3 Route). The route is handed to the kernel
// as given, with no reachability check and no retry; a kernel refusal is
// classified and returned. An empty nsName targets the root namespace.
func (e *LinuxExecutor) AddRoute(ctx context.Context, nsName string, dst *net.IPNet, gateway net.IP, device string) error {
	return withNamespace(nsName, func() error {
		route := &netlink.Route{Dst: dst}
		if gateway != nil {
			route.Gw = gateway
		}
		if device != "" {
			link, err := netlink.LinkByName(device)
			if err != nil {
				return classify(device, "link", err)
			}
			route.LinkIndex = link.Attrs().Index
		}
		if err := netlink.RouteAdd(route); err != nil {
			if errors.Is(err, syscall.EEXIST) {
				return nil
			}
			return classify(nsName, routeObject(dst, device), err)
		}
		return nil
	})
}

// DeleteRoute removes a static route inside nsName. A missing route is
// treated as success.
func (e *LinuxExecutor) DeleteRoute(ctx context.Context, nsName string, dst *net.IPNet, device string) error {
	return withNamespace(nsName, func() error {
		route := &netlink.Route{Dst: dst}
		if device != "" {
			link, err := netlink.LinkByName(device)
			if err != nil {
				if isLinkNotFound(err) {
					return nil
				}
				return classify(device, "link", err)
			}
			route.LinkIndex = link.Attrs().Index
		}
		if err := netlink.RouteDel(route); err != nil {
			if errors.Is(err, syscall.ESRCH) || isLinkNotFound(err) {
				return nil
			}
			return classify(nsName, routeObject(dst, device), err)
		}
		return nil
	})
}

func routeObject(dst *net.IPNet, device string) string {
	if dst == nil {
		return device
	}
	return dst.String()
}
