package topo

import (
	"context"

	"nsnetsim/internal/kernel"
	"nsnetsim/pkg/logger"
)

// SwitchNode owns one Linux bridge, named verbatim after the node (spec
// §4.4; node names are already validated to ≤15 bytes, so no further
// truncation is needed here — only synthesised veth peer names need
// that, see names.go). It records the set of interfaces intended to join
// it so Topology's single validation pass can confirm they exist and
// belong to routers in the same Topology; the actual bridge attachment
// happens when the owning interface is brought up (internal/topo
// router.go), not here.
type SwitchNode struct {
	name       string
	bridgeName string
	executor   kernel.Executor
	stack      *kernel.Stack
	log        *logger.Logger

	members map[string]bool
	created bool
}

func newSwitchNode(name string, executor kernel.Executor, stack *kernel.Stack, log *logger.Logger) *SwitchNode {
	return &SwitchNode{
		name:       name,
		bridgeName: name,
		executor:   executor,
		stack:      stack,
		log:        log.WithField("switch", name),
		members:    make(map[string]bool),
	}
}

func (s *SwitchNode) Name() string { return s.name }

// BridgeName is the Linux bridge name backing this switch.
func (s *SwitchNode) BridgeName() string { return s.bridgeName }

func (s *SwitchNode) addMember(key string) { s.members[key] = true }

// MemberCount reports how many interfaces have been wired to join this
// switch, for tests and diagnostics.
func (s *SwitchNode) MemberCount() int { return len(s.members) }

// Create creates the bridge and brings it up (spec §4.4); idempotent per
// spec invariant 6.
func (s *SwitchNode) Create(ctx context.Context) error {
	if s.created {
		return nil
	}
	if err := s.executor.CreateBridge(ctx, s.bridgeName); err != nil {
		return err
	}
	s.stack.Push("delete-bridge:"+s.bridgeName, func(ctx context.Context) error {
		return s.executor.DeleteBridge(ctx, s.bridgeName)
	})
	s.created = true
	return nil
}

// Destroy removes the bridge directly; the shared cleanup stack already
// does this during a normal Topology.Destroy, so this exists for direct,
// single-node use outside a Topology (spec §3 Node capability set).
func (s *SwitchNode) Destroy(ctx context.Context) error {
	if !s.created {
		return nil
	}
	if err := s.executor.DeleteBridge(ctx, s.bridgeName); err != nil {
		return err
	}
	s.created = false
	return nil
}

var _ Node = (*SwitchNode)(nil)
