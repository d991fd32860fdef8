// Package nerrors provides the error taxonomy used across nsnetsim: every
// error a Topology operation surfaces carries a Kind drawn from a fixed
// set, names the offending node/object, and preserves its cause via
// Unwrap so callers can still errors.Is/As through it.
package nerrors

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation failed. Callers switch on Kind rather
// than comparing error strings.
type Kind string

const (
	// InvariantViolation means pre-run validation found one or more
	// violations of §3's invariants; these are always batched.
	InvariantViolation Kind = "invariant_violation"
	// NameCollision means a kernel object with the same name exists and
	// is not ours.
	NameCollision Kind = "name_collision"
	// NotFound means the target was missing; on teardown this is treated
	// as success, not surfaced as a failure.
	NotFound Kind = "not_found"
	// NotPermitted means the caller lacks the required capabilities.
	NotPermitted Kind = "not_permitted"
	// ExternalFailure wraps a kernel or spawn error with its cause
	// preserved.
	ExternalFailure Kind = "external_failure"
	// DaemonUnready means a readiness deadline elapsed before a daemon's
	// control socket appeared.
	DaemonUnready Kind = "daemon_unready"
	// InvalidState means the API was misused across a lifecycle edge
	// (e.g. run() called twice).
	InvalidState Kind = "invalid_state"
	// Unsupported means the operation is not defined on this node
	// variant.
	Unsupported Kind = "unsupported"
)

// Error is the concrete error type returned by topology and kernel
// operations. It always names the offending node and, where applicable,
// the kernel object involved.
type Error struct {
	Kind   Kind
	Node   string
	Object string
	Err    error
}

// New builds an Error. cause may be nil for pure validation/state errors.
func New(kind Kind, node, object string, cause error) *Error {
	return &Error{Kind: kind, Node: node, Object: object, Err: cause}
}

func (e *Error) Error() string {
	switch {
	case e.Node == "" && e.Object == "":
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return string(e.Kind)
	case e.Object == "":
		if e.Err != nil {
			return fmt.Sprintf("%s: node %s: %v", e.Kind, e.Node, e.Err)
		}
		return fmt.Sprintf("%s: node %s", e.Kind, e.Node)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: node %s: %s: %v", e.Kind, e.Node, e.Object, e.Err)
		}
		return fmt.Sprintf("%s: node %s: %s", e.Kind, e.Node, e.Object)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind, so
// errors.Is(err, New(kind, "", "", nil)) matches any *Error of that kind
// in err's chain regardless of node, object or cause. KindOf(err) is the
// more direct way to ask the same question.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// KindOf extracts the Kind carried by err, walking Unwrap chains, and
// returns ("", false) if neither err nor anything it wraps is an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Violations aggregates every invariant violation found in a single
// validation pass, so run() always batches (spec §3, §7).
type Violations struct {
	Errors []*Error
}

func (v *Violations) Add(e *Error) {
	v.Errors = append(v.Errors, e)
}

func (v *Violations) Empty() bool {
	return len(v.Errors) == 0
}

// Unwrap exposes the batch's inner *Error values so errors.Is/As/KindOf
// can see through a Violations the same way they see through a single
// wrapped error (Go 1.20 multi-error unwrap).
func (v *Violations) Unwrap() []error {
	errs := make([]error, len(v.Errors))
	for i, e := range v.Errors {
		errs[i] = e
	}
	return errs
}

func (v *Violations) Error() string {
	if len(v.Errors) == 1 {
		return v.Errors[0].Error()
	}
	msg := fmt.Sprintf("%d invariant violations:", len(v.Errors))
	for _, e := range v.Errors {
		msg += "\n  - " + e.Error()
	}
	return msg
}

// AsError returns v as an error, or nil if v has no violations — so
// callers can `if err := v.AsError(); err != nil { return err }` directly.
func (v *Violations) AsError() error {
	if v.Empty() {
		return nil
	}
	return v
}
