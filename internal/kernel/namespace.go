//go:build linux

package kernel

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/vishvananda/netns"

	"nsnetsim/pkg/nerrors"
)

// CreateNamespace creates a named network namespace and switches the
// creating thread back out of it immediately; the namespace persists
// under /var/run/netns/<name> independent of any thread's current ns.
func (e *LinuxExecutor) CreateNamespace(ctx context.Context, name string) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origNS, err := netns.Get()
	if err != nil {
		return nerrors.New(nerrors.ExternalFailure, name, "netns", err)
	}
	defer origNS.Close()
	defer netns.Set(origNS)

	newNS, err := netns.NewNamed(name)
	if err != nil {
		if os.IsExist(err) {
			return nerrors.New(nerrors.NameCollision, name, "netns", err)
		}
		return classify(name, "netns", err)
	}
	newNS.Close()
	return nil
}

// DeleteNamespace removes a named network namespace. A missing namespace
// is treated as success (teardown idempotence, spec §4.1).
func (e *LinuxExecutor) DeleteNamespace(ctx context.Context, name string) error {
	if err := netns.DeleteNamed(name); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return classify(name, "netns", err)
	}
	return nil
}

// NamespaceExists reports whether a named network namespace is already
// present, for Topology's pre-flight NameCollision check (spec invariant
// I3, edge case S5).
func (e *LinuxExecutor) NamespaceExists(ctx context.Context, name string) (bool, error) {
	ns, err := netns.GetFromName(name)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, classify(name, "netns", err)
	}
	ns.Close()
	return true, nil
}

// withNamespace runs fn with the calling OS thread switched into the
// named namespace, restoring the thread's original namespace afterward.
// An empty name runs fn in the current (root) namespace. Locking the OS
// thread for the duration is safe under the single-threaded-per-Topology
// model the scheduler guarantees (spec §5).
func withNamespace(name string, fn func() error) error {
	if name == "" {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		return fn()
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	origNS, err := netns.Get()
	if err != nil {
		return nerrors.New(nerrors.ExternalFailure, name, "netns", err)
	}
	defer origNS.Close()

	targetNS, err := netns.GetFromName(name)
	if err != nil {
		return classify(name, "netns", err)
	}
	defer targetNS.Close()

	if err := netns.Set(targetNS); err != nil {
		return nerrors.New(nerrors.ExternalFailure, name, "netns", fmt.Errorf("enter namespace: %w", err))
	}
	defer netns.Set(origNS)

	return fn()
}
