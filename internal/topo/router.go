package topo

import (
	"context"
	"net"

	"nsnetsim/internal/kernel"
	"nsnetsim/pkg/logger"
	"nsnetsim/pkg/nerrors"
)

// RouterNode owns one network namespace, named verbatim after the node
// (spec §4.5), an ordered sequence of Interfaces, and a set of static
// Routes. BirdRouterNode and ExaBGPRouterNode (internal/daemon) embed a
// *RouterNode and layer daemon launch on top of its Create; they keep its
// Destroy unchanged.
type RouterNode struct {
	name     string
	executor kernel.Executor
	stack    *kernel.Stack
	log      *logger.Logger

	ifaces      []*Interface
	ifaceByName map[string]*Interface
	routes      []Route

	created bool
}

func newRouterNode(name string, executor kernel.Executor, stack *kernel.Stack, log *logger.Logger) *RouterNode {
	return &RouterNode{
		name:        name,
		executor:    executor,
		stack:       stack,
		log:         log.WithField("router", name),
		ifaceByName: make(map[string]*Interface),
	}
}

func (r *RouterNode) Name() string { return r.name }

// Executor exposes the Topology-assigned kernel.Executor to daemon
// supervisors built on top of this RouterNode (internal/daemon).
func (r *RouterNode) Executor() kernel.Executor { return r.executor }

// Stack exposes the shared cleanup stack so a daemon supervisor's launch
// can register its own compensating teardown action alongside this
// router's namespace/interface/route undo actions.
func (r *RouterNode) Stack() *kernel.Stack { return r.stack }

func (r *RouterNode) nsNameOf() string { return r.name }

func (r *RouterNode) interfaces() []*Interface { return r.ifaces }

func (r *RouterNode) routesOf() []Route { return r.routes }

func (r *RouterNode) interfaceNamed(name string) (*Interface, bool) {
	iface, ok := r.ifaceByName[name]
	return iface, ok
}

func (r *RouterNode) addInterfaceTo(name string, mac net.HardwareAddr, switchName string) (*Interface, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if _, exists := r.ifaceByName[name]; exists {
		return nil, nerrors.New(nerrors.NameCollision, r.name, name, nil)
	}
	iface := &Interface{name: name, mac: mac, switchName: switchName}
	r.ifaces = append(r.ifaces, iface)
	r.ifaceByName[name] = iface
	return iface, nil
}

func (r *RouterNode) addRouteTo(route Route) error {
	r.routes = append(r.routes, route)
	return nil
}

// Create brings up the namespace, then every interface in insertion
// order, then every route (spec §4.5's ordering within a router).
// Idempotent per invariant 6.
func (r *RouterNode) Create(ctx context.Context) error {
	if r.created {
		return nil
	}

	if err := r.executor.CreateNamespace(ctx, r.name); err != nil {
		return err
	}
	r.stack.Push("delete-namespace:"+r.name, func(ctx context.Context) error {
		return r.executor.DeleteNamespace(ctx, r.name)
	})

	for _, iface := range r.ifaces {
		if err := r.bringUpInterface(ctx, iface); err != nil {
			return err
		}
	}
	for _, route := range r.routes {
		if err := r.installRoute(ctx, route); err != nil {
			return err
		}
	}

	r.created = true
	return nil
}

// bringUpInterface implements spec §4.2's six-step sequence.
func (r *RouterNode) bringUpInterface(ctx context.Context, iface *Interface) error {
	// Step 1: create the veth pair, both ends in the root namespace.
	if err := r.executor.CreateVethPair(ctx, iface.name, iface.peerName); err != nil {
		return err
	}
	r.stack.Push("delete-link:"+iface.peerName, func(ctx context.Context) error {
		return r.executor.DeleteLink(ctx, iface.peerName)
	})

	// Step 2: move the router-side end into this router's namespace.
	if err := r.executor.SetLinkNamespace(ctx, iface.name, r.name); err != nil {
		return err
	}

	// Step 3: attach the peer to its switch (bridge already up, the
	// Topology scheduler guarantees switches precede routers), or leave
	// it as a standalone root-namespace endpoint; either way bring it up.
	if iface.switchName != "" {
		if err := r.executor.AttachToBridge(ctx, iface.switchName, iface.peerName); err != nil {
			return err
		}
	}
	if err := r.executor.SetLinkUp(ctx, "", iface.peerName); err != nil {
		return err
	}

	// Step 4: bring the router-side end up inside the namespace.
	if err := r.executor.SetLinkUp(ctx, r.name, iface.name); err != nil {
		return err
	}

	// Step 5: assign a MAC, if one was specified.
	if iface.mac != nil {
		if err := r.executor.SetLinkMAC(ctx, r.name, iface.name, iface.mac); err != nil {
			return err
		}
	}

	// Step 6: add addresses; requires the link to already be UP.
	for _, addr := range iface.addresses {
		if err := r.executor.AddAddr(ctx, r.name, iface.name, addr.IPNet()); err != nil {
			return err
		}
	}

	return nil
}

// installRoute adds a static route after the router's interfaces are up
// and addressed (spec §4.5). The gateway's reachability is not checked
// here; the route goes to the kernel as declared, and if the kernel
// refuses it the classified error (internal/kernel) aborts the bringup.
func (r *RouterNode) installRoute(ctx context.Context, route Route) error {
	if err := r.executor.AddRoute(ctx, r.name, route.Destination, route.Gateway, route.Device); err != nil {
		return err
	}
	dst, device := route.Destination, route.Device
	r.stack.Push("delete-route:"+route.label(), func(ctx context.Context) error {
		return r.executor.DeleteRoute(ctx, r.name, dst, device)
	})
	return nil
}

// Destroy removes the namespace directly, which implicitly tears down any
// remaining interfaces and routes inside it (spec §4.5's "belt and
// braces"). The shared cleanup stack already does this during a normal
// Topology.Destroy; this method exists for direct, single-node use.
func (r *RouterNode) Destroy(ctx context.Context) error {
	if !r.created {
		return nil
	}
	if err := r.executor.DeleteNamespace(ctx, r.name); err != nil {
		return err
	}
	r.created = false
	return nil
}

var (
	_ Node          = (*RouterNode)(nil)
	_ routerCapable = (*RouterNode)(nil)
)
