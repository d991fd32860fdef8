package daemon

import (
	"context"
	"path/filepath"

	"nsnetsim/internal/topo"
)

// BirdRouterNode is a RouterNode that launches a BIRD routing daemon
// inside its namespace once the namespace, interfaces, and static routes
// are up (spec §4.6). It embeds *topo.RouterNode so method promotion
// satisfies topo's unexported router capability set across the package
// boundary without topo importing daemon.
type BirdRouterNode struct {
	*topo.RouterNode
	sup *Supervisor
}

// Create brings up the embedded RouterNode (namespace, interfaces,
// routes) and then launches and waits for BIRD to become ready, so a
// caller observing Create's return already has a queryable control
// socket (spec §4.6, edge case S6).
func (b *BirdRouterNode) Create(ctx context.Context) error {
	if err := b.RouterNode.Create(ctx); err != nil {
		return err
	}
	if err := b.sup.Launch(ctx); err != nil {
		return err
	}
	return b.sup.AwaitReady(ctx)
}

// Query proxies to the BIRD control socket, making BirdRouterNode a
// topo.Queryable (spec §4.6, §6).
func (b *BirdRouterNode) Query(ctx context.Context, req []byte) ([]byte, error) {
	return b.sup.Query(ctx, req)
}

// birdArgs builds BIRD's command line: run in the foreground (-f, so the
// supervisor's spawned process IS the daemon, not a forking parent),
// load the copied config, and bind its control socket to socketPath.
func birdArgs(runtimeDir, configPath, socketPath string) []string {
	return []string{
		"-f",
		"-c", filepath.Join(runtimeDir, filepath.Base(configPath)),
		"-s", socketPath,
	}
}

func birdSocketPath(runtimeDir string) string {
	return filepath.Join(runtimeDir, "bird.ctl")
}

var (
	_ topo.Node      = (*BirdRouterNode)(nil)
	_ topo.Queryable = (*BirdRouterNode)(nil)
)
