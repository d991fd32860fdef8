package topo

import (
	"context"
	"fmt"
	"net"
	"sync"

	"nsnetsim/internal/kernel"
	"nsnetsim/pkg/logger"
	"nsnetsim/pkg/nerrors"
)

// State is a Topology's position in its lifecycle (spec §3, §4.3).
type State int

const (
	Built State = iota
	Running
	Destroyed
)

func (s State) String() string {
	switch s {
	case Built:
		return "built"
	case Running:
		return "running"
	case Destroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Topology is the registry and scheduler (spec §4.3): a name-unique
// mapping of nodes, the shared cleanup stack, and the BUILT -> RUNNING ->
// DESTROYED lifecycle. A Topology is single-use across the
// RUNNING -> DESTROYED edge.
type Topology struct {
	mu       sync.Mutex
	state    State
	executor kernel.Executor
	stack    *kernel.Stack
	log      *logger.Logger
	daemons  DaemonFactory

	order    []string
	nodes    map[string]Node
	switches map[string]*SwitchNode
	routers  map[string]routerCapable
}

// NewTopology builds an empty Topology backed by executor. log may be
// nil.
func NewTopology(executor kernel.Executor, log *logger.Logger) *Topology {
	if log == nil {
		log = logger.New()
	}
	log = log.WithField("component", "topology")
	return &Topology{
		state:    Built,
		executor: executor,
		stack:    kernel.NewStack(log),
		log:      log,
		nodes:    make(map[string]Node),
		switches: make(map[string]*SwitchNode),
		routers:  make(map[string]routerCapable),
	}
}

// SetDaemonFactory wires the daemon-bearing router specialisations
// (internal/daemon); without one, AddRouter only accepts KindPlain.
func (t *Topology) SetDaemonFactory(f DaemonFactory) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.daemons = f
}

// GetNode looks up a node by name (spec §4.3).
func (t *Topology) GetNode(name string) (Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[name]
	return n, ok
}

// State reports the Topology's current lifecycle state.
func (t *Topology) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Topology) registerNode(node Node) error {
	if _, exists := t.nodes[node.Name()]; exists {
		return nerrors.New(nerrors.NameCollision, node.Name(), "node", nil)
	}
	t.nodes[node.Name()] = node
	t.order = append(t.order, node.Name())
	return nil
}

func (t *Topology) checkBuildable(name string) error {
	if t.state != Built {
		return nerrors.New(nerrors.InvalidState, name, "",
			fmt.Errorf("topology is %s, not built", t.state))
	}
	return ValidateName(name)
}

// AddSwitch adds a SwitchNode (spec §6 declarative input contract).
func (t *Topology) AddSwitch(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkBuildable(name); err != nil {
		return err
	}
	if _, exists := t.nodes[name]; exists {
		return nerrors.New(nerrors.NameCollision, name, "node", nil)
	}

	sw := newSwitchNode(name, t.executor, t.stack, t.log)
	if err := t.registerNode(sw); err != nil {
		return err
	}
	t.switches[name] = sw
	return nil
}

// AddRouter adds a RouterNode of the given kind (spec §6
// AddRouter(name, kind, config_path?)). Plain routers need no config
// path; bird/exabgp routers require one and a DaemonFactory set via
// SetDaemonFactory. An unrecognised kind fails with Unsupported, naming
// the offending kind (spec §9 resolves the source's unformatted-template
// bug here).
func (t *Topology) AddRouter(name string, kind RouterKind, configPath string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.checkBuildable(name); err != nil {
		return err
	}
	if _, exists := t.nodes[name]; exists {
		return nerrors.New(nerrors.NameCollision, name, "node", nil)
	}

	base := newRouterNode(name, t.executor, t.stack, t.log)

	var node Node
	switch kind {
	case KindPlain, "":
		node = base
	case KindBird:
		if t.daemons == nil {
			return nerrors.New(nerrors.Unsupported, name, string(kind),
				fmt.Errorf("no daemon factory configured for router kind %q", kind))
		}
		n, err := t.daemons.NewBirdRouter(base, configPath)
		if err != nil {
			return err
		}
		node = n
	case KindExaBGP:
		if t.daemons == nil {
			return nerrors.New(nerrors.Unsupported, name, string(kind),
				fmt.Errorf("no daemon factory configured for router kind %q", kind))
		}
		n, err := t.daemons.NewExaBGPRouter(base, configPath)
		if err != nil {
			return err
		}
		node = n
	default:
		return nerrors.New(nerrors.Unsupported, name, string(kind),
			fmt.Errorf("unknown router kind %q", kind))
	}

	rc, ok := node.(routerCapable)
	if !ok {
		return nerrors.New(nerrors.Unsupported, name, string(kind),
			fmt.Errorf("router kind %q does not implement the router capability set", kind))
	}

	if err := t.registerNode(node); err != nil {
		return err
	}
	t.routers[name] = rc
	return nil
}

// AddInterface adds an Interface to routerName, optionally joining
// switchName (spec §6 AddInterface(router_name, iface_name, mac?,
// switch_name?)).
func (t *Topology) AddInterface(routerName, ifaceName string, mac net.HardwareAddr, switchName string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Built {
		return nerrors.New(nerrors.InvalidState, routerName, "",
			fmt.Errorf("topology is %s, not built", t.state))
	}

	r, ok := t.routers[routerName]
	if !ok {
		return nerrors.New(nerrors.NotFound, routerName, "router", nil)
	}
	if switchName != "" {
		sw, ok := t.switches[switchName]
		if !ok {
			return nerrors.New(nerrors.NotFound, switchName, "switch", nil)
		}
		_ = sw
	}

	if _, err := r.addInterfaceTo(ifaceName, mac, switchName); err != nil {
		return err
	}
	if switchName != "" {
		t.switches[switchName].addMember(routerName + "/" + ifaceName)
	}
	return nil
}

// AddAddress adds an address to an existing interface, parsing it
// immediately (spec §6 AddAddress, §3 "parsed at insertion").
func (t *Topology) AddAddress(routerName, ifaceName, address string, prefixLen int, family Family) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Built {
		return nerrors.New(nerrors.InvalidState, routerName, "",
			fmt.Errorf("topology is %s, not built", t.state))
	}

	r, ok := t.routers[routerName]
	if !ok {
		return nerrors.New(nerrors.NotFound, routerName, "router", nil)
	}
	iface, ok := r.interfaceNamed(ifaceName)
	if !ok {
		return nerrors.New(nerrors.NotFound, routerName, ifaceName, nil)
	}

	addr, err := ParseAddress(address, prefixLen, family)
	if err != nil {
		return err
	}
	iface.addresses = append(iface.addresses, addr)
	return nil
}

// AddRoute adds a static route to routerName (spec §6 AddRoute(router_name,
// destination, via)).
func (t *Topology) AddRoute(routerName, destination, via string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != Built {
		return nerrors.New(nerrors.InvalidState, routerName, "",
			fmt.Errorf("topology is %s, not built", t.state))
	}

	r, ok := t.routers[routerName]
	if !ok {
		return nerrors.New(nerrors.NotFound, routerName, "router", nil)
	}

	route, err := ParseRoute(destination, via)
	if err != nil {
		return err
	}
	return r.addRouteTo(route)
}

// Run validates the topology in one pass, then brings up switches (any
// order among themselves), then routers (any order among themselves; each
// router's own namespace/interfaces/routes/daemon in order), draining the
// cleanup stack and moving to Destroyed on any failure (spec §4.3).
func (t *Topology) Run(ctx context.Context) error {
	t.mu.Lock()
	if t.state != Built {
		state := t.state
		t.mu.Unlock()
		return nerrors.New(nerrors.InvalidState, "", "",
			fmt.Errorf("run() called while topology is %s", state))
	}
	t.mu.Unlock()

	if v := t.validate(ctx); !v.Empty() {
		t.mu.Lock()
		t.state = Destroyed
		t.mu.Unlock()
		return v.AsError()
	}

	var failed error
	for _, name := range t.order {
		sw, ok := t.switches[name]
		if !ok {
			continue
		}
		if err := sw.Create(ctx); err != nil {
			failed = err
			break
		}
	}

	if failed == nil {
		for _, name := range t.order {
			r, ok := t.routers[name]
			if !ok {
				continue
			}
			if err := r.Create(ctx); err != nil {
				failed = err
				break
			}
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if failed != nil {
		t.stack.Drain(ctx)
		t.state = Destroyed
		return failed
	}
	t.state = Running
	return nil
}

// Destroy drains the cleanup stack. Idempotent: the second and every
// subsequent call is a no-op returning success (spec §4.3, invariant I5).
func (t *Topology) Destroy(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == Destroyed {
		return nil
	}
	t.stack.Drain(ctx)
	t.state = Destroyed
	return nil
}

// Query routes an opaque request to the named node (spec §4.3, §6).
func (t *Topology) Query(ctx context.Context, nodeName string, req []byte) ([]byte, error) {
	t.mu.Lock()
	node, ok := t.nodes[nodeName]
	t.mu.Unlock()
	if !ok {
		return nil, nerrors.New(nerrors.NotFound, nodeName, "node", nil)
	}

	q, ok := node.(Queryable)
	if !ok {
		return nil, nerrors.New(nerrors.Unsupported, nodeName, "query", nil)
	}
	return q.Query(ctx, req)
}

// validate implements spec §4.3 step 1: resolve every interface's peer
// name, then check every invariant in one pass so run() always batches
// (spec §7). Pre-flight existence checks against the live kernel cover
// invariant I3 / edge case S5 (pre-existing object with a minted name).
func (t *Topology) validate(ctx context.Context) *nerrors.Violations {
	v := &nerrors.Violations{}
	taken := make(map[string]bool)

	for _, name := range t.order {
		r, ok := t.routers[name]
		if !ok {
			continue
		}

		for _, iface := range r.interfaces() {
			if iface.peerName == "" {
				iface.peerName = derivePeerName(name, iface.name, taken)
			}
			if taken[iface.peerName] {
				v.Add(nerrors.New(nerrors.InvariantViolation, name, iface.peerName,
					fmt.Errorf("veth peer name collides with another interface's")))
			}
			taken[iface.peerName] = true

			if iface.switchName != "" {
				if _, ok := t.switches[iface.switchName]; !ok {
					v.Add(nerrors.New(nerrors.InvariantViolation, name, iface.name,
						fmt.Errorf("references unknown switch %q", iface.switchName)))
				}
			}
		}

		for _, route := range r.routesOf() {
			if route.Device == "" {
				continue
			}
			if _, ok := r.interfaceNamed(route.Device); !ok {
				v.Add(nerrors.New(nerrors.InvariantViolation, name, route.Device,
					fmt.Errorf("route %s references an interface not present on this router", route.label())))
			}
		}
	}

	for name, sw := range t.switches {
		if exists, err := t.executor.LinkExists(ctx, sw.BridgeName()); err == nil && exists {
			v.Add(nerrors.New(nerrors.NameCollision, name, sw.BridgeName(),
				fmt.Errorf("a bridge named %q already exists", sw.BridgeName())))
		}
	}
	for name, r := range t.routers {
		if exists, err := t.executor.NamespaceExists(ctx, r.nsNameOf()); err == nil && exists {
			v.Add(nerrors.New(nerrors.NameCollision, name, r.nsNameOf(),
				fmt.Errorf("a namespace named %q already exists", r.nsNameOf())))
		}
	}

	return v
}
