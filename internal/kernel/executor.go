// Package kernel is the sole owner of host side effects: network
// namespaces, veth pairs, bridges, addresses, routes, and the routing
// daemon processes spawned inside those namespaces. Primitives do not
// touch the cleanup Stack themselves: callers push a reversible action
// after each namespace, veth pair, bridge, route or daemon they create.
// Moving, bringing up, addressing or attaching a link pushes none; those
// effects go away with the link or namespace. Failures are typed
// *nerrors.Error values classifying why.
package kernel

import (
	"context"
	"io"
	"net"
	"syscall"

	"nsnetsim/pkg/platform"
)

// ProcessSpec describes a process to spawn inside a namespace.
type ProcessSpec struct {
	Path   string
	Args   []string
	Dir    string
	Env    []string
	Stdout io.Writer
	Stderr io.Writer
}

// Process is a handle to a spawned daemon process.
type Process interface {
	Pid() int
	Wait() error
	Kill() error
}

// Executor is the complete set of kernel primitives the topology and
// daemon layers depend on (spec §4.1). It is satisfied by LinuxExecutor
// and, in tests, by a recording fake so the scheduling/validation logic
// above it never touches the real kernel.
type Executor interface {
	CreateNamespace(ctx context.Context, name string) error
	DeleteNamespace(ctx context.Context, name string) error
	NamespaceExists(ctx context.Context, name string) (bool, error)

	CreateVethPair(ctx context.Context, name, peerName string) error
	DeleteLink(ctx context.Context, name string) error
	LinkExists(ctx context.Context, name string) (bool, error)
	SetLinkNamespace(ctx context.Context, linkName, nsName string) error
	SetLinkUp(ctx context.Context, nsName, linkName string) error
	SetLinkMAC(ctx context.Context, nsName, linkName string, mac net.HardwareAddr) error
	AddAddr(ctx context.Context, nsName, linkName string, addr *net.IPNet) error

	CreateBridge(ctx context.Context, name string) error
	DeleteBridge(ctx context.Context, name string) error
	AttachToBridge(ctx context.Context, bridgeName, linkName string) error

	AddRoute(ctx context.Context, nsName string, dst *net.IPNet, gateway net.IP, device string) error
	DeleteRoute(ctx context.Context, nsName string, dst *net.IPNet, device string) error

	SpawnInNamespace(ctx context.Context, nsName string, spec ProcessSpec) (Process, error)
	Signal(proc Process, sig syscall.Signal) error
	Reap(proc Process) error
}

// LinuxExecutor is the netlink/netns-backed Executor used outside tests.
// Link, address, route, and bridge operations go through
// github.com/vishvananda/netlink; namespace creation/entry goes through
// github.com/vishvananda/netns. Process spawning still goes through
// platform.Platform, preserving the fake-able seam the daemon supervisors
// depend on.
type LinuxExecutor struct {
	platform platform.Platform
}

// NewLinuxExecutor builds an Executor backed by the real kernel.
func NewLinuxExecutor(p platform.Platform) *LinuxExecutor {
	return &LinuxExecutor{platform: p}
}
