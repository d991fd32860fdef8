//go:build linux

package kernel

import (
	"errors"
	"syscall"

	"nsnetsim/pkg/nerrors"
)

// classify maps a netlink/netns/syscall error to the nerrors taxonomy
// (spec §4.1): EEXIST becomes NameCollision, a missing link/namespace
// becomes NotFound (callers treat NotFound as success on teardown paths
// themselves — classify only names the kind), EPERM becomes NotPermitted,
// and anything else becomes ExternalFailure with the cause preserved.
func classify(node, object string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, syscall.EEXIST):
		return nerrors.New(nerrors.NameCollision, node, object, err)
	case errors.Is(err, syscall.ENOENT), isLinkNotFound(err):
		return nerrors.New(nerrors.NotFound, node, object, err)
	case errors.Is(err, syscall.EPERM), errors.Is(err, syscall.EACCES):
		return nerrors.New(nerrors.NotPermitted, node, object, err)
	default:
		return nerrors.New(nerrors.ExternalFailure, node, object, err)
	}
}
