// Package kernelfakes provides a hand-maintained recording fake of
// kernel.Executor for tests in internal/topo and internal/daemon, so
// those packages' scheduling and validation logic never touches the
// real kernel (mirrors joblet's counterfeiter-generated platform fake,
// written by hand here since code generation cannot be run).
package kernelfakes

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"

	"nsnetsim/internal/kernel"
)

// Call records one invocation of an Executor method, for assertions on
// ordering (invariant I4) in tests.
type Call struct {
	Method string
	Args   []interface{}
}

// FakeProcess is a no-op kernel.Process used by FakeExecutor.
type FakeProcess struct {
	PidValue   int
	KillCalled bool
	WaitErr    error
}

func (p *FakeProcess) Pid() int { return p.PidValue }
func (p *FakeProcess) Wait() error { return p.WaitErr }
func (p *FakeProcess) Kill() error {
	p.KillCalled = true
	return nil
}

// FakeExecutor records every call it receives and lets tests inject
// failures per method name via Fail.
type FakeExecutor struct {
	mu sync.Mutex

	Calls []Call

	// Fail, keyed by method name, is returned instead of nil on the next
	// (and every subsequent) matching call.
	Fail map[string]error

	namespaces map[string]bool
	links      map[string]bool
	bridges    map[string]bool

	nextPid int
}

// NewFakeExecutor builds an empty FakeExecutor.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{
		Fail:       make(map[string]error),
		namespaces: make(map[string]bool),
		links:      make(map[string]bool),
		bridges:    make(map[string]bool),
	}
}

func (f *FakeExecutor) record(method string, args ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, Call{Method: method, Args: args})
	return f.Fail[method]
}

func (f *FakeExecutor) CreateNamespace(ctx context.Context, name string) error {
	if err := f.record("CreateNamespace", name); err != nil {
		return err
	}
	if f.namespaces[name] {
		return fmt.Errorf("namespace %s exists", name)
	}
	f.namespaces[name] = true
	return nil
}

func (f *FakeExecutor) DeleteNamespace(ctx context.Context, name string) error {
	if err := f.record("DeleteNamespace", name); err != nil {
		return err
	}
	delete(f.namespaces, name)
	return nil
}

func (f *FakeExecutor) NamespaceExists(ctx context.Context, name string) (bool, error) {
	if err := f.record("NamespaceExists", name); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.namespaces[name], nil
}

func (f *FakeExecutor) CreateVethPair(ctx context.Context, name, peerName string) error {
	if err := f.record("CreateVethPair", name, peerName); err != nil {
		return err
	}
	f.links[name] = true
	f.links[peerName] = true
	return nil
}

func (f *FakeExecutor) DeleteLink(ctx context.Context, name string) error {
	if err := f.record("DeleteLink", name); err != nil {
		return err
	}
	delete(f.links, name)
	return nil
}

func (f *FakeExecutor) LinkExists(ctx context.Context, name string) (bool, error) {
	if err := f.record("LinkExists", name); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.links[name] || f.bridges[name], nil
}

func (f *FakeExecutor) SetLinkNamespace(ctx context.Context, linkName, nsName string) error {
	return f.record("SetLinkNamespace", linkName, nsName)
}

func (f *FakeExecutor) SetLinkUp(ctx context.Context, nsName, linkName string) error {
	return f.record("SetLinkUp", nsName, linkName)
}

func (f *FakeExecutor) SetLinkMAC(ctx context.Context, nsName, linkName string, mac net.HardwareAddr) error {
	return f.record("SetLinkMAC", nsName, linkName, mac)
}

func (f *FakeExecutor) AddAddr(ctx context.Context, nsName, linkName string, addr *net.IPNet) error {
	return f.record("AddAddr", nsName, linkName, addr)
}

func (f *FakeExecutor) CreateBridge(ctx context.Context, name string) error {
	if err := f.record("CreateBridge", name); err != nil {
		return err
	}
	f.bridges[name] = true
	return nil
}

func (f *FakeExecutor) DeleteBridge(ctx context.Context, name string) error {
	if err := f.record("DeleteBridge", name); err != nil {
		return err
	}
	delete(f.bridges, name)
	return nil
}

func (f *FakeExecutor) AttachToBridge(ctx context.Context, bridgeName, linkName string) error {
	if err := f.record("AttachToBridge", bridgeName, linkName); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.bridges[bridgeName] {
		return fmt.Errorf("bridge %s does not exist", bridgeName)
	}
	return nil
}

func (f *FakeExecutor) AddRoute(ctx context.Context, nsName string, dst *net.IPNet, gateway net.IP, device string) error {
	return f.record("AddRoute", nsName, dst, gateway, device)
}

func (f *FakeExecutor) DeleteRoute(ctx context.Context, nsName string, dst *net.IPNet, device string) error {
	return f.record("DeleteRoute", nsName, dst, device)
}

func (f *FakeExecutor) SpawnInNamespace(ctx context.Context, nsName string, spec kernel.ProcessSpec) (kernel.Process, error) {
	if err := f.record("SpawnInNamespace", nsName, spec.Path); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.nextPid++
	pid := f.nextPid
	f.mu.Unlock()
	return &FakeProcess{PidValue: pid}, nil
}

func (f *FakeExecutor) Signal(proc kernel.Process, sig syscall.Signal) error {
	return f.record("Signal", proc.Pid(), sig)
}

func (f *FakeExecutor) Reap(proc kernel.Process) error {
	if err := f.record("Reap", proc.Pid()); err != nil {
		return err
	}
	return proc.Wait()
}

// SeedNamespace marks name as already existing before the test begins,
// simulating a pre-existing kernel object for edge case S5.
func (f *FakeExecutor) SeedNamespace(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.namespaces[name] = true
}

// SeedLink marks name as already existing before the test begins,
// simulating a pre-existing kernel object for edge case S5.
func (f *FakeExecutor) SeedLink(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[name] = true
}

// BridgeIsUp reports whether CreateBridge has been called for name and
// DeleteBridge has not undone it, for assertions on invariant I4.
func (f *FakeExecutor) BridgeIsUp(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bridges[name]
}

var _ kernel.Executor = (*FakeExecutor)(nil)
