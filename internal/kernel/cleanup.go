package kernel

import (
	"context"

	"nsnetsim/pkg/logger"
)

// Action is a single reversible step pushed onto a Stack after its
// forward operation succeeds. Label names the operation for logging;
// Undo is the compensating call.
type Action struct {
	Label string
	Undo  func(ctx context.Context) error
}

// Stack is the per-Topology LIFO of compensating actions (spec §4.1,
// §9 "cleanup stack over implicit finalisation"). It drains
// unconditionally: each Undo is individually fallible and its failure is
// logged, never raised, so one stuck resource cannot block the rest of
// teardown (spec §7).
type Stack struct {
	actions []Action
	log     *logger.Logger
}

// NewStack builds an empty Stack. log may be nil, in which case drain
// failures are logged through a default logger (logger.New()).
func NewStack(log *logger.Logger) *Stack {
	if log == nil {
		log = logger.New()
	}
	return &Stack{log: log.WithField("component", "cleanup-stack")}
}

// Push records a compensating action, to be run in reverse order of
// insertion on Drain.
func (s *Stack) Push(label string, undo func(ctx context.Context) error) {
	s.actions = append(s.actions, Action{Label: label, Undo: undo})
}

// Len reports how many compensating actions remain.
func (s *Stack) Len() int {
	return len(s.actions)
}

// Drain runs every remaining action in LIFO order and empties the stack.
// It never returns an error; individual failures are logged.
func (s *Stack) Drain(ctx context.Context) {
	for i := len(s.actions) - 1; i >= 0; i-- {
		action := s.actions[i]
		if err := action.Undo(ctx); err != nil {
			s.log.Warn("cleanup action failed", "action", action.Label, "error", err)
		}
	}
	s.actions = nil
}
