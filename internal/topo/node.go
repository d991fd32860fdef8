// Package topo implements the topology registry and scheduler (spec §4.3):
// it resolves a declarative description of switches, routers, interfaces,
// addresses and routes into an ordered sequence of kernel.Executor calls,
// enforces the data-model invariants in one validation pass, and drives
// bringup and teardown through a shared cleanup stack.
package topo

import (
	"context"
	"net"

	"nsnetsim/internal/kernel"
)

// Node is the capability set every topology member implements (spec §3,
// §9 "variants over inheritance"): a unique name, idempotent bringup, and
// tolerant-of-partial-failure teardown. SwitchNode, RouterNode and the
// daemon-bearing router specialisations in internal/daemon all satisfy it.
type Node interface {
	Name() string
	Create(ctx context.Context) error
	Destroy(ctx context.Context) error
}

// Queryable is implemented by nodes with a control surface (the daemon
// supervisors); Topology.Query type-asserts for it and fails with
// Unsupported when a node lacks one (spec §4.3 query, §7 Unsupported).
type Queryable interface {
	Query(ctx context.Context, req []byte) ([]byte, error)
}

// RouterKind selects which RouterNode specialisation AddRouter builds
// (spec §6 AddRouter(name, kind, config_path?)).
type RouterKind string

const (
	KindPlain  RouterKind = "plain"
	KindBird   RouterKind = "bird"
	KindExaBGP RouterKind = "exabgp"
)

// DaemonFactory builds the daemon-bearing RouterNode specialisations.
// internal/daemon implements it; internal/topo only depends on the
// interface, so the dependency runs one way (daemon -> topo) and a
// Topology is usable with plain routers alone when no factory is set.
type DaemonFactory interface {
	NewBirdRouter(base *RouterNode, configPath string) (Node, error)
	NewExaBGPRouter(base *RouterNode, configPath string) (Node, error)
}

// routerCapable is satisfied by every RouterNode variant, including the
// daemon-bearing ones in internal/daemon, which embed *RouterNode and so
// inherit these methods by promotion without needing to see this
// unexported interface themselves.
type routerCapable interface {
	Node
	addInterfaceTo(name string, mac net.HardwareAddr, switchName string) (*Interface, error)
	addRouteTo(route Route) error
	interfaceNamed(name string) (*Interface, bool)
	interfaces() []*Interface
	routesOf() []Route
	nsNameOf() string
	Executor() kernel.Executor
	Stack() *kernel.Stack
}
