package topo

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsnetsim/internal/kernel"
	"nsnetsim/internal/kernel/kernelfakes"
	"nsnetsim/pkg/logger"
)

func newTestRouter(name string, fe *kernelfakes.FakeExecutor) *RouterNode {
	return newRouterNode(name, fe, kernel.NewStack(logger.New()), logger.New())
}

func TestRouterNode_AddInterfaceRejectsCollision(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	r := newTestRouter("r1", fe)

	_, err := r.addInterfaceTo("eth0", nil, "")
	require.NoError(t, err)

	_, err = r.addInterfaceTo("eth0", nil, "")
	require.Error(t, err)
}

func TestRouterNode_AddInterfaceRejectsBadName(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	r := newTestRouter("r1", fe)

	_, err := r.addInterfaceTo("bad name!", nil, "")
	require.Error(t, err)
}

func TestRouterNode_CreateBringsUpInterfacesInOrder(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	r := newTestRouter("r1", fe)

	// The switch's bridge exists before the router comes up, as the
	// Topology scheduler guarantees; only the router's calls are checked.
	require.NoError(t, fe.CreateBridge(context.Background(), "sw0"))
	fe.Calls = nil

	iface, err := r.addInterfaceTo("eth0", net.HardwareAddr{0x02, 0, 0, 0, 0, 1}, "sw0")
	require.NoError(t, err)
	iface.peerName = "r1-eth0"
	addr, err := ParseAddress("10.0.0.1", 24, FamilyV4)
	require.NoError(t, err)
	iface.addresses = append(iface.addresses, addr)

	require.NoError(t, r.Create(context.Background()))

	methods := make([]string, 0, len(fe.Calls))
	for _, c := range fe.Calls {
		methods = append(methods, c.Method)
	}
	assert.Equal(t, []string{
		"CreateNamespace",
		"CreateVethPair",
		"SetLinkNamespace",
		"AttachToBridge",
		"SetLinkUp",
		"SetLinkUp",
		"SetLinkMAC",
		"AddAddr",
	}, methods)
}

func TestRouterNode_CreateIsIdempotent(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	r := newTestRouter("r1", fe)

	require.NoError(t, r.Create(context.Background()))
	callsAfterFirst := len(fe.Calls)
	require.NoError(t, r.Create(context.Background()))
	assert.Equal(t, callsAfterFirst, len(fe.Calls))
}

func TestRouterNode_DestroyIsIdempotent(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	r := newTestRouter("r1", fe)

	require.NoError(t, r.Destroy(context.Background()))
	require.NoError(t, r.Create(context.Background()))
	require.NoError(t, r.Destroy(context.Background()))
	require.NoError(t, r.Destroy(context.Background()))
}
