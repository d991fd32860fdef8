// Package daemon implements the routing-daemon specialisations of
// internal/topo's RouterNode (spec §4.6): BirdRouterNode and
// ExaBGPRouterNode each embed a *topo.RouterNode and layer a Supervisor
// on top of its Create, materialising a runtime directory, spawning the
// daemon inside the router's namespace, polling for readiness, and
// proxying Query calls down its control socket. Destroy is the embedded
// RouterNode's and does not stop the daemon; daemon teardown runs through
// the stop action Launch pushes onto the shared cleanup stack.
//
// daemon depends on topo (for RouterNode and the Executor/Stack it
// exposes); topo depends on daemon only through the DaemonFactory
// interface it defines and daemon's Factory implements, so there is no
// import cycle.
package daemon

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"nsnetsim/internal/kernel"
	"nsnetsim/internal/topo"
	"nsnetsim/pkg/config"
	"nsnetsim/pkg/logger"
	"nsnetsim/pkg/nerrors"
	"nsnetsim/pkg/platform"
)

// Supervisor owns one daemon process's lifecycle within a single
// RouterNode's namespace: config materialisation, spawn, readiness
// polling, query proxying, and graceful-then-forced teardown (spec
// §4.6).
type Supervisor struct {
	nodeName   string
	binary     string
	args       []string
	configPath string
	socketPath string
	runtimeDir string

	executor kernel.Executor
	stack    *kernel.Stack
	platform platform.Platform
	cfg      config.DaemonsConfig
	log      *logger.Logger

	proc kernel.Process
}

// NewSupervisor builds a Supervisor for nodeName. socketPath is the
// control-socket path the daemon is expected to create inside its own
// namespace; readiness polling checks for its existence via Stat against
// the root-namespace mount of the router's runtime directory, since
// nsnetsim always places a daemon's runtime state under
// config.RuntimeDir(nodeName) regardless of namespace.
func NewSupervisor(nodeName, binary string, args []string, configPath, socketPath string, executor kernel.Executor, stack *kernel.Stack, p platform.Platform, cfg config.DaemonsConfig, log *logger.Logger) *Supervisor {
	return &Supervisor{
		nodeName:   nodeName,
		binary:     binary,
		args:       args,
		configPath: configPath,
		socketPath: socketPath,
		runtimeDir: cfg.RuntimeDir(nodeName),
		executor:   executor,
		stack:      stack,
		platform:   p,
		cfg:        cfg,
		log:        log.WithField("daemon", binary),
	}
}

// Launch materialises the runtime directory, copies the supplied config
// into it, spawns the daemon inside the router's namespace with its
// stdout/stderr captured to daemon.log, and pushes the compensating
// teardown action onto the shared cleanup stack before returning. It
// does not block for readiness; call AwaitReady separately so a caller
// can bound the wait with its own context deadline.
func (s *Supervisor) Launch(ctx context.Context) error {
	if err := s.platform.MkdirAll(s.runtimeDir, 0o755); err != nil {
		return nerrors.New(nerrors.ExternalFailure, s.nodeName, s.runtimeDir, err)
	}
	s.stack.Push("remove-runtime-dir:"+s.nodeName, func(ctx context.Context) error {
		return s.removeRuntimeDir()
	})

	if s.configPath != "" {
		data, err := s.platform.ReadFile(s.configPath)
		if err != nil {
			return nerrors.New(nerrors.ExternalFailure, s.nodeName, s.configPath, err)
		}
		dest := filepath.Join(s.runtimeDir, filepath.Base(s.configPath))
		if err := s.platform.WriteFile(dest, data, 0o644); err != nil {
			return nerrors.New(nerrors.ExternalFailure, s.nodeName, dest, err)
		}
		s.configPath = dest
	}

	logPath := filepath.Join(s.runtimeDir, "daemon.log")
	out, err := s.platform.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nerrors.New(nerrors.ExternalFailure, s.nodeName, logPath, err)
	}

	spec := kernel.ProcessSpec{
		Path:   s.binary,
		Args:   s.args,
		Dir:    s.runtimeDir,
		Env:    s.platform.Environ(),
		Stdout: out,
		Stderr: out,
	}

	proc, err := s.executor.SpawnInNamespace(ctx, s.nodeName, spec)
	if err != nil {
		return err
	}
	s.proc = proc

	pidPath := filepath.Join(s.runtimeDir, "daemon.pid")
	pid := strconv.Itoa(proc.Pid())
	if err := s.platform.WriteFile(pidPath, []byte(pid), 0o644); err != nil {
		s.log.Warn("failed to write daemon.pid", "node", s.nodeName, "error", err)
	}

	s.stack.Push("stop-daemon:"+s.nodeName+":"+s.binary, func(ctx context.Context) error {
		return s.Teardown(ctx)
	})
	return nil
}

// AwaitReady polls for the daemon's control socket until it appears, ctx
// is done, or the configured ReadinessTimeout elapses, whichever comes
// first, returning DaemonUnready in the latter two cases (spec §4.6, §7).
func (s *Supervisor) AwaitReady(ctx context.Context) error {
	deadline := time.Now().Add(s.cfg.ReadinessTimeout)
	ticker := time.NewTicker(s.cfg.ReadinessPollInterval)
	defer ticker.Stop()

	for {
		if _, err := s.platform.Stat(s.socketPath); err == nil {
			return nil
		} else if !s.platform.IsNotExist(err) {
			return nerrors.New(nerrors.ExternalFailure, s.nodeName, s.socketPath, err)
		}

		if time.Now().After(deadline) {
			return nerrors.New(nerrors.DaemonUnready, s.nodeName, s.socketPath,
				fmt.Errorf("control socket did not appear within %s", s.cfg.ReadinessTimeout))
		}

		select {
		case <-ctx.Done():
			return nerrors.New(nerrors.DaemonUnready, s.nodeName, s.socketPath, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Query sends req as one line over the control socket and returns the
// single-line reply, dialing fresh for every call (spec §4.6: the
// control socket is opaque to nsnetsim, which neither pools nor
// multiplexes connections to it).
func (s *Supervisor) Query(ctx context.Context, req []byte) ([]byte, error) {
	if s.proc == nil {
		return nil, nerrors.New(nerrors.InvalidState, s.nodeName, "",
			fmt.Errorf("daemon not launched"))
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", s.socketPath)
	if err != nil {
		return nil, nerrors.New(nerrors.ExternalFailure, s.nodeName, s.socketPath, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.Write(append(req, '\n')); err != nil {
		return nil, nerrors.New(nerrors.ExternalFailure, s.nodeName, s.socketPath, err)
	}

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, nerrors.New(nerrors.ExternalFailure, s.nodeName, s.socketPath, err)
	}
	return line, nil
}

// Teardown signals the daemon to stop gracefully, waits up to
// GracefulKillGrace, and kills it if it has not exited by then (spec
// §4.6 graceful-then-forced termination). A nil proc (never launched) is
// a no-op success.
func (s *Supervisor) Teardown(ctx context.Context) error {
	if s.proc == nil {
		return nil
	}

	if err := s.executor.Signal(s.proc, syscall.SIGTERM); err != nil {
		s.log.Warn("SIGTERM failed, killing directly", "node", s.nodeName, "error", err)
		s.forceKill()
		return s.removeRuntimeDir()
	}

	done := make(chan error, 1)
	go func() { done <- s.executor.Reap(s.proc) }()

	select {
	case <-done:
	case <-time.After(s.cfg.GracefulKillGrace):
		s.log.Warn("graceful grace period elapsed, killing", "node", s.nodeName)
		s.forceKill()
	}
	return s.removeRuntimeDir()
}

func (s *Supervisor) forceKill() {
	if err := s.proc.Kill(); err != nil {
		s.log.Warn("kill failed", "node", s.nodeName, "error", err)
	}
	_ = s.executor.Reap(s.proc)
}

// removeRuntimeDir deletes the node's runtime directory, the last step
// of daemon teardown (spec §4.6, §6: "the entire directory is removed").
// A missing directory is not an error, matching the rest of this
// package's idempotent-teardown discipline.
func (s *Supervisor) removeRuntimeDir() error {
	if err := s.platform.RemoveAll(s.runtimeDir); err != nil && !s.platform.IsNotExist(err) {
		return nerrors.New(nerrors.ExternalFailure, s.nodeName, s.runtimeDir, err)
	}
	return nil
}

var _ topo.Queryable = (*Supervisor)(nil)
