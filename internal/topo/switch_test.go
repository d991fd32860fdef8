package topo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsnetsim/internal/kernel"
	"nsnetsim/internal/kernel/kernelfakes"
	"nsnetsim/pkg/logger"
)

func TestSwitchNode_CreateIsIdempotent(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	sw := newSwitchNode("sw0", fe, kernel.NewStack(logger.New()), logger.New())

	require.NoError(t, sw.Create(context.Background()))
	require.NoError(t, sw.Create(context.Background()))
	assert.Len(t, fe.Calls, 1)
	assert.True(t, fe.BridgeIsUp("sw0"))
}

func TestSwitchNode_DestroyRemovesBridge(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	sw := newSwitchNode("sw0", fe, kernel.NewStack(logger.New()), logger.New())

	require.NoError(t, sw.Create(context.Background()))
	require.NoError(t, sw.Destroy(context.Background()))
	assert.False(t, fe.BridgeIsUp("sw0"))
}

func TestSwitchNode_MemberCount(t *testing.T) {
	fe := kernelfakes.NewFakeExecutor()
	sw := newSwitchNode("sw0", fe, kernel.NewStack(logger.New()), logger.New())
	sw.addMember("r1/eth0")
	sw.addMember("r2/eth0")
	assert.Equal(t, 2, sw.MemberCount())
}
