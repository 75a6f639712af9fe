package storage

import "errors"

var (
	// ErrNotFound reports a catalog or store lookup miss. This is a
	// normal outcome (the asset simply is not there), distinct from
	// corruption.
	ErrNotFound = errors.New("storage: not found")

	ErrInvalidCID  = errors.New("storage: invalid cid")
	ErrCIDMismatch = errors.New("storage: cid mismatch")
	ErrImmutable   = errors.New("storage: immutable object mismatch")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
