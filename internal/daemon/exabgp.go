package daemon

import (
	"context"
	"path/filepath"

	"nsnetsim/internal/topo"
)

// ExaBGPRouterNode is a RouterNode that launches an ExaBGP process inside
// its namespace once the namespace, interfaces, and static routes are up
// (spec §4.6). Structurally identical to BirdRouterNode; kept as a
// distinct type because spec §6 names bird and exabgp as separate router
// kinds with independently evolvable config/query shapes.
type ExaBGPRouterNode struct {
	*topo.RouterNode
	sup *Supervisor
}

// Create brings up the embedded RouterNode, then launches and waits for
// ExaBGP to become ready (spec §4.6).
func (e *ExaBGPRouterNode) Create(ctx context.Context) error {
	if err := e.RouterNode.Create(ctx); err != nil {
		return err
	}
	if err := e.sup.Launch(ctx); err != nil {
		return err
	}
	return e.sup.AwaitReady(ctx)
}

// Query proxies to the ExaBGP control socket (spec §4.6, §6).
func (e *ExaBGPRouterNode) Query(ctx context.Context, req []byte) ([]byte, error) {
	return e.sup.Query(ctx, req)
}

// exabgpArgs builds ExaBGP's command line: ExaBGP runs in the foreground
// by default, so this is just the copied config's path.
func exabgpArgs(runtimeDir, configPath string) []string {
	return []string{filepath.Join(runtimeDir, filepath.Base(configPath))}
}

func exabgpSocketPath(runtimeDir string) string {
	return filepath.Join(runtimeDir, "exabgp.sock")
}

var (
	_ topo.Node      = (*ExaBGPRouterNode)(nil)
	_ topo.Queryable = (*ExaBGPRouterNode)(nil)
)
