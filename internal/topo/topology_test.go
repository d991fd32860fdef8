package topo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsnetsim/internal/kernel/kernelfakes"
	"nsnetsim/pkg/logger"
	"nsnetsim/pkg/nerrors"
)

func newTestTopology() (*Topology, *kernelfakes.FakeExecutor) {
	fe := kernelfakes.NewFakeExecutor()
	return NewTopology(fe, logger.New()), fe
}

// S1: a two-router, one-switch topology runs cleanly end to end.
func TestTopology_RunSimpleTopology(t *testing.T) {
	top, fe := newTestTopology()

	require.NoError(t, top.AddSwitch("sw0"))
	require.NoError(t, top.AddRouter("r1", KindPlain, ""))
	require.NoError(t, top.AddRouter("r2", KindPlain, ""))
	require.NoError(t, top.AddInterface("r1", "eth0", nil, "sw0"))
	require.NoError(t, top.AddInterface("r2", "eth0", nil, "sw0"))
	require.NoError(t, top.AddAddress("r1", "eth0", "10.0.0.1", 24, FamilyV4))
	require.NoError(t, top.AddAddress("r2", "eth0", "10.0.0.2", 24, FamilyV4))

	require.NoError(t, top.Run(context.Background()))
	assert.Equal(t, Running, top.State())
	assert.True(t, fe.BridgeIsUp("sw0"))

	require.NoError(t, top.Destroy(context.Background()))
	assert.Equal(t, Destroyed, top.State())

	// Destroy is idempotent (invariant I5).
	require.NoError(t, top.Destroy(context.Background()))
}

// I4: the switch a router's interface joins is brought up before that
// interface is attached to it.
func TestTopology_SwitchesPrecedeRouters(t *testing.T) {
	top, fe := newTestTopology()

	require.NoError(t, top.AddRouter("r1", KindPlain, ""))
	require.NoError(t, top.AddSwitch("sw0"))
	require.NoError(t, top.AddInterface("r1", "eth0", nil, "sw0"))

	require.NoError(t, top.Run(context.Background()))

	bridgeIdx, attachIdx := -1, -1
	for i, call := range fe.Calls {
		switch call.Method {
		case "CreateBridge":
			bridgeIdx = i
		case "AttachToBridge":
			attachIdx = i
		}
	}
	require.NotEqual(t, -1, bridgeIdx)
	require.NotEqual(t, -1, attachIdx)
	assert.Less(t, bridgeIdx, attachIdx)
}

// S3: an ill-formed address fails at AddAddress, before any kernel call.
func TestTopology_IllFormedAddressFailsBeforeRun(t *testing.T) {
	top, fe := newTestTopology()

	require.NoError(t, top.AddRouter("r1", KindPlain, ""))
	require.NoError(t, top.AddInterface("r1", "eth0", nil, ""))

	err := top.AddAddress("r1", "eth0", "not-an-ip", 24, FamilyV4)
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.InvariantViolation, kind)
	assert.Empty(t, fe.Calls)
}

// I3 / S5: a name colliding with a pre-existing kernel object fails run()
// with NameCollision before any mutating call.
func TestTopology_PreExistingNamespaceFailsRunWithNameCollision(t *testing.T) {
	top, fe := newTestTopology()
	fe.SeedNamespace("r1")

	require.NoError(t, top.AddRouter("r1", KindPlain, ""))

	err := top.Run(context.Background())
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.NameCollision, kind)

	for _, call := range fe.Calls {
		assert.NotEqual(t, "CreateNamespace", call.Method)
	}
}

func TestTopology_PreExistingBridgeFailsRunWithNameCollision(t *testing.T) {
	top, fe := newTestTopology()
	fe.SeedLink("sw0")

	require.NoError(t, top.AddSwitch("sw0"))

	err := top.Run(context.Background())
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.NameCollision, kind)
	for _, call := range fe.Calls {
		assert.NotEqual(t, "CreateBridge", call.Method)
	}
}

// A mid-bringup kernel failure drains everything already pushed onto the
// cleanup stack.
func TestTopology_RunFailureDrainsCleanupStack(t *testing.T) {
	top, fe := newTestTopology()

	require.NoError(t, top.AddSwitch("sw0"))
	require.NoError(t, top.AddRouter("r1", KindPlain, ""))
	require.NoError(t, top.AddInterface("r1", "eth0", nil, "sw0"))

	fe.Fail["SetLinkNamespace"] = assert.AnError

	err := top.Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, Destroyed, top.State())

	// The bridge created for sw0 and the veth pair created for eth0 must
	// both have been torn down.
	assert.False(t, fe.BridgeIsUp("sw0"))
	peerDeleted := false
	for _, call := range fe.Calls {
		if call.Method == "DeleteLink" && len(call.Args) == 1 && call.Args[0] == "r1-eth0" {
			peerDeleted = true
		}
	}
	assert.True(t, peerDeleted)
}

func TestTopology_AddRouter_UnsupportedKindNamesTheKind(t *testing.T) {
	top, _ := newTestTopology()

	err := top.AddRouter("r1", RouterKind("frobnicate"), "")
	require.Error(t, err)
	var nerr *nerrors.Error
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, nerrors.Unsupported, nerr.Kind)
	assert.Equal(t, "frobnicate", nerr.Object)
}

func TestTopology_AddRouter_BirdKindWithoutFactory(t *testing.T) {
	top, _ := newTestTopology()

	err := top.AddRouter("r1", KindBird, "/etc/bird.conf")
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.Unsupported, kind)
}

func TestTopology_NameCollisionBetweenTwoNodes(t *testing.T) {
	top, _ := newTestTopology()

	require.NoError(t, top.AddSwitch("dup"))
	err := top.AddRouter("dup", KindPlain, "")
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.NameCollision, kind)
}

func TestTopology_AddInterface_UnknownRouterOrSwitch(t *testing.T) {
	top, _ := newTestTopology()
	require.NoError(t, top.AddRouter("r1", KindPlain, ""))

	err := top.AddInterface("ghost", "eth0", nil, "")
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.NotFound, kind)

	err = top.AddInterface("r1", "eth0", nil, "no-such-switch")
	require.Error(t, err)
	kind, ok = nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.NotFound, kind)
}

func TestTopology_RunTwiceFailsInvalidState(t *testing.T) {
	top, _ := newTestTopology()
	require.NoError(t, top.Run(context.Background()))

	err := top.Run(context.Background())
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.InvalidState, kind)
}

func TestTopology_AddAfterRunFailsInvalidState(t *testing.T) {
	top, _ := newTestTopology()
	require.NoError(t, top.Run(context.Background()))

	err := top.AddSwitch("sw0")
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.InvalidState, kind)
}

func TestTopology_QueryUnknownNode(t *testing.T) {
	top, _ := newTestTopology()
	_, err := top.Query(context.Background(), "ghost", []byte("{}"))
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.NotFound, kind)
}

func TestTopology_QueryNonQueryableNode(t *testing.T) {
	top, _ := newTestTopology()
	require.NoError(t, top.AddSwitch("sw0"))
	_, err := top.Query(context.Background(), "sw0", []byte("{}"))
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.Unsupported, kind)
}

func TestTopology_RouteReferencingUnknownInterfaceFailsRun(t *testing.T) {
	top, _ := newTestTopology()
	require.NoError(t, top.AddRouter("r1", KindPlain, ""))
	require.NoError(t, top.AddRoute("r1", "10.2.0.0/24", "eth9"))

	err := top.Run(context.Background())
	require.Error(t, err)
	kind, ok := nerrors.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, nerrors.InvariantViolation, kind)
}
