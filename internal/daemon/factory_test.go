package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsnetsim/internal/kernel/kernelfakes"
	"nsnetsim/internal/topo"
	"nsnetsim/pkg/logger"
	"nsnetsim/pkg/platform/platformfakes"
)

func TestFactory_NewBirdRouter_RequiresConfigPath(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	top := topo.NewTopology(fe, logger.New())
	f := NewFactory(platformfakes.New(), testDaemonsConfig(), logger.New())
	top.SetDaemonFactory(f)

	err := top.AddRouter("r1", topo.KindBird, "")
	require.Error(t, err)
}

func TestFactory_NewBirdRouter_WiresIntoTopology(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	fp := platformfakes.New()
	cfg := testDaemonsConfig()
	require.NoError(t, fp.WriteFile("/etc/bird.conf", []byte("router id 1.2.3.4;"), 0o644))
	fp.MarkReady(cfg.RuntimeDir("r1") + "/bird.ctl")

	top := topo.NewTopology(fe, logger.New())
	top.SetDaemonFactory(NewFactory(fp, cfg, logger.New()))

	require.NoError(t, top.AddRouter("r1", topo.KindBird, "/etc/bird.conf"))

	node, ok := top.GetNode("r1")
	require.True(t, ok)
	_, isBird := node.(*BirdRouterNode)
	assert.True(t, isBird)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, top.Run(ctx))
	assert.Equal(t, topo.Running, top.State())

	require.NoError(t, top.Destroy(context.Background()))
}

func TestFactory_NewExaBGPRouter_WiresIntoTopology(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	fp := platformfakes.New()
	cfg := testDaemonsConfig()
	require.NoError(t, fp.WriteFile("/etc/exabgp.conf", []byte("neighbor 10.0.0.1 {}"), 0o644))
	fp.MarkReady(cfg.RuntimeDir("r2") + "/exabgp.sock")

	top := topo.NewTopology(fe, logger.New())
	top.SetDaemonFactory(NewFactory(fp, cfg, logger.New()))

	require.NoError(t, top.AddRouter("r2", topo.KindExaBGP, "/etc/exabgp.conf"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, top.Run(ctx))

	node, ok := top.GetNode("r2")
	require.True(t, ok)
	_, isExaBGP := node.(*ExaBGPRouterNode)
	assert.True(t, isExaBGP)
}
