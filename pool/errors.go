package pool

import "errors"

// Pool errors.
var (
	// ErrInvalidArgument indicates an empty name or a non-positive size.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrConflict indicates a pool name was requested with a different
	// block size than the existing pool carries.
	ErrConflict = errors.New("pool exists with different block size")

	// ErrOutOfMemory indicates the backing allocator failed.
	ErrOutOfMemory = errors.New("backing allocation failed")

	// ErrClosed indicates the pool is mid- or post-teardown.
	ErrClosed = errors.New("pool is closed")

	// ErrDoubleFree indicates a release of a block that is already free.
	ErrDoubleFree = errors.New("block already released")

	// ErrForeignBlock indicates a block released to a pool that does not
	// own it.
	ErrForeignBlock = errors.New("block belongs to another pool")
)
