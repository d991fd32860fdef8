package daemon

import (
	"fmt"

	"nsnetsim/internal/topo"
	"nsnetsim/pkg/config"
	"nsnetsim/pkg/logger"
	"nsnetsim/pkg/platform"
)

// Factory implements topo.DaemonFactory, closing over the process-level
// dependencies (platform, daemon config, logger) every Supervisor needs
// but that topo.Topology has no reason to hold itself.
type Factory struct {
	platform platform.Platform
	cfg      config.DaemonsConfig
	log      *logger.Logger
}

// NewFactory builds a Factory. log may be nil.
func NewFactory(p platform.Platform, cfg config.DaemonsConfig, log *logger.Logger) *Factory {
	if log == nil {
		log = logger.New()
	}
	return &Factory{platform: p, cfg: cfg, log: log.WithField("component", "daemon-factory")}
}

// NewBirdRouter wraps base with a BIRD Supervisor (spec §4.6, §9 resolves
// the router-kind dispatch this implements). configPath must point at a
// readable BIRD config file; it is copied into the node's runtime
// directory at launch.
func (f *Factory) NewBirdRouter(base *topo.RouterNode, configPath string) (topo.Node, error) {
	if configPath == "" {
		return nil, fmt.Errorf("bird router %q requires a config path", base.Name())
	}
	runtimeDir := f.cfg.RuntimeDir(base.Name())
	socketPath := birdSocketPath(runtimeDir)
	args := birdArgs(runtimeDir, configPath, socketPath)

	sup := NewSupervisor(base.Name(), f.cfg.BirdBinary, args, configPath, socketPath,
		base.Executor(), base.Stack(), f.platform, f.cfg, f.log)

	return &BirdRouterNode{RouterNode: base, sup: sup}, nil
}

// NewExaBGPRouter wraps base with an ExaBGP Supervisor (spec §4.6).
func (f *Factory) NewExaBGPRouter(base *topo.RouterNode, configPath string) (topo.Node, error) {
	if configPath == "" {
		return nil, fmt.Errorf("exabgp router %q requires a config path", base.Name())
	}
	runtimeDir := f.cfg.RuntimeDir(base.Name())
	socketPath := exabgpSocketPath(runtimeDir)
	args := exabgpArgs(runtimeDir, configPath)

	sup := NewSupervisor(base.Name(), f.cfg.ExaBGPBinary, args, configPath, socketPath,
		base.Executor(), base.Stack(), f.platform, f.cfg, f.log)

	return &ExaBGPRouterNode{RouterNode: base, sup: sup}, nil
}

var _ topo.DaemonFactory = (*Factory)(nil)
