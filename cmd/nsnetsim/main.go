//go:build linux

// Command nsnetsim wires the kernel executor, topology scheduler, and
// daemon factory together and runs a topology definition supplied by an
// embedding program. A full CLI/config-file reader for declarative
// topology input is a collaborator this orchestrator expects but does
// not itself provide (spec §1 non-goal); this binary exists to prove the
// wiring, not to replace that collaborator.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"nsnetsim/internal/daemon"
	"nsnetsim/internal/kernel"
	"nsnetsim/internal/topo"
	"nsnetsim/pkg/config"
	"nsnetsim/pkg/logger"
	"nsnetsim/pkg/platform"
)

func main() {
	cfg, path, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level, err := logger.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logger.INFO
	}
	log := logger.NewWithConfig(logger.Config{Level: level, Mode: "nsnetsim"})
	log = log.WithField("component", "main")
	log.Info("configuration loaded", "path", path)

	p := platform.NewPlatform()
	executor := kernel.NewLinuxExecutor(p)

	top := topo.NewTopology(executor, log)
	top.SetDaemonFactory(daemon.NewFactory(p, cfg.Daemons, log))

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("received signal, tearing down", "signal", sig.String())
		cancel()
	}()

	if err := top.Run(ctx); err != nil {
		log.Error("topology run failed", "error", err)
		os.Exit(1)
	}
	log.Info("topology running", "state", top.State().String())

	<-ctx.Done()
	if err := top.Destroy(context.Background()); err != nil {
		log.Error("topology teardown failed", "error", err)
		os.Exit(1)
	}
	log.Info("topology destroyed")
}
