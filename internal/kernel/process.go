//go:build linux

package kernel

import (
	"context"
	"syscall"

	"nsnetsim/pkg/platform"
)

// namedNsPath is where `ip netns add <name>` / netns.NewNamed(<name>)
// bind-mount named namespaces, matching the nsenter --net= convention
// joblet's own execInNamespace helper relies on.
const namedNsPath = "/var/run/netns/"

// processHandle adapts a platform.Command into kernel.Process.
type processHandle struct {
	cmd platform.Command
}

func (p *processHandle) Pid() int  { return p.cmd.Process().Pid() }
func (p *processHandle) Wait() error { return p.cmd.Wait() }
func (p *processHandle) Kill() error { return p.cmd.Process().Kill() }

// SpawnInNamespace launches spec.Path inside the named namespace via
// nsenter, the same mechanism joblet's NetworkSetup.execInNamespace uses
// to run configuration commands inside a job's namespace.
func (e *LinuxExecutor) SpawnInNamespace(ctx context.Context, nsName string, spec ProcessSpec) (Process, error) {
	args := append([]string{"--net=" + namedNsPath + nsName, spec.Path}, spec.Args...)
	cmd := e.platform.CreateCommand("nsenter", args...)

	if spec.Dir != "" {
		cmd.SetDir(spec.Dir)
	}
	if spec.Env != nil {
		cmd.SetEnv(spec.Env)
	}
	if spec.Stdout != nil {
		cmd.SetStdout(spec.Stdout)
	}
	if spec.Stderr != nil {
		cmd.SetStderr(spec.Stderr)
	}

	if err := cmd.Start(); err != nil {
		return nil, classify(nsName, spec.Path, err)
	}

	return &processHandle{cmd: cmd}, nil
}

// Signal sends sig to proc.
func (e *LinuxExecutor) Signal(proc Process, sig syscall.Signal) error {
	return syscall.Kill(proc.Pid(), sig)
}

// Reap waits for proc to exit, reclaiming its kernel resources. The
// supervisor, not this layer, decides what a daemon's exit status means;
// a non-zero exit still reaps cleanly.
func (e *LinuxExecutor) Reap(proc Process) error {
	return proc.Wait()
}
