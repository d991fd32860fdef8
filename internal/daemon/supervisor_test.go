package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsnetsim/internal/kernel"
	"nsnetsim/internal/kernel/kernelfakes"
	"nsnetsim/pkg/config"
	"nsnetsim/pkg/logger"
	"nsnetsim/pkg/nerrors"
	"nsnetsim/pkg/platform/platformfakes"
)

func testDaemonsConfig() config.DaemonsConfig {
	return config.DaemonsConfig{
		RuntimeBaseDir:        "/run/nsnetsim",
		ReadinessTimeout:      100 * time.Millisecond,
		ReadinessPollInterval: 5 * time.Millisecond,
		GracefulKillGrace:     50 * time.Millisecond,
		BirdBinary:            "bird",
		ExaBGPBinary:          "exabgp",
	}
}

func TestSupervisor_LaunchSpawnsAndPushesCleanup(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	fp := platformfakes.New()
	stack := kernel.NewStack(logger.New())
	cfg := testDaemonsConfig()

	require.NoError(t, fp.WriteFile("/etc/bird.conf", []byte("router id 1.2.3.4;"), 0o644))

	sup := NewSupervisor("r1", cfg.BirdBinary, []string{"-f"}, "/etc/bird.conf",
		cfg.RuntimeDir("r1")+"/bird.ctl", fe, stack, fp, cfg, logger.New())

	require.NoError(t, sup.Launch(context.Background()))
	assert.Equal(t, 2, stack.Len())

	require.Len(t, fe.Calls, 1)
	assert.Equal(t, "SpawnInNamespace", fe.Calls[0].Method)

	data, err := fp.ReadFile(cfg.RuntimeDir("r1") + "/bird.conf")
	require.NoError(t, err)
	assert.Equal(t, "router id 1.2.3.4;", string(data))
}

func TestSupervisor_AwaitReady_SucceedsOnceSocketAppears(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	fp := platformfakes.New()
	stack := kernel.NewStack(logger.New())
	cfg := testDaemonsConfig()

	socketPath := cfg.RuntimeDir("r1") + "/bird.ctl"
	sup := NewSupervisor("r1", cfg.BirdBinary, nil, "", socketPath, fe, stack, fp, cfg, logger.New())

	go func() {
		time.Sleep(10 * time.Millisecond)
		fp.MarkReady(socketPath)
	}()

	require.NoError(t, sup.AwaitReady(context.Background()))
}

func TestSupervisor_AwaitReady_TimesOutAsDaemonUnready(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	fp := platformfakes.New()
	stack := kernel.NewStack(logger.New())
	cfg := testDaemonsConfig()

	sup := NewSupervisor("r1", cfg.BirdBinary, nil, "", "/run/nsnetsim/r1/bird.ctl", fe, stack, fp, cfg, logger.New())

	err := sup.AwaitReady(context.Background())
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.DaemonUnready, kind)
}

func TestSupervisor_Teardown_GracefulStopReapsWithoutKill(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	fp := platformfakes.New()
	stack := kernel.NewStack(logger.New())
	cfg := testDaemonsConfig()

	sup := NewSupervisor("r1", cfg.BirdBinary, nil, "", "", fe, stack, fp, cfg, logger.New())
	require.NoError(t, sup.Launch(context.Background()))

	require.NoError(t, sup.Teardown(context.Background()))

	methods := make([]string, 0, len(fe.Calls))
	for _, c := range fe.Calls {
		methods = append(methods, c.Method)
	}
	assert.Contains(t, methods, "Signal")
	assert.Contains(t, methods, "Reap")
}

func TestSupervisor_Teardown_NeverLaunchedIsNoOp(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	fp := platformfakes.New()
	stack := kernel.NewStack(logger.New())
	cfg := testDaemonsConfig()

	sup := NewSupervisor("r1", cfg.BirdBinary, nil, "", "", fe, stack, fp, cfg, logger.New())
	require.NoError(t, sup.Teardown(context.Background()))
	assert.Empty(t, fe.Calls)
}

func TestSupervisor_Query_BeforeLaunchIsInvalidState(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	fp := platformfakes.New()
	stack := kernel.NewStack(logger.New())
	cfg := testDaemonsConfig()

	sup := NewSupervisor("r1", cfg.BirdBinary, nil, "", "", fe, stack, fp, cfg, logger.New())
	_, err := sup.Query(context.Background(), []byte("{}"))
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.InvalidState, kind)
}
