package disk

import (
	"errors"
	"fmt"
)

// Block is a 4096-byte buffer
type Block = []byte

const BlockSize uint64 = 4096

// Disk provides access to a logical block-based disk
type Disk interface {
	// Read reads a disk block by address
	//
	// Expects a < Size().
	Read(a uint64) (Block, error)

	// ReadTo reads the disk block at a and stores the result in b
	//
	// Expects a < Size().
	ReadTo(a uint64, b Block) error

	// Write updates a disk block by address
	//
	// Expects a < Size().
	Write(a uint64, v Block) error

	// Size reports how big the disk is, in blocks
	Size() (uint64, error)

	// Barrier ensures data is persisted.
	//
	// When it returns, all outstanding writes are guaranteed to be durably on
	// disk
	Barrier() error

	// Close releases any resources used by the disk and makes it unusable.
	Close() error
}

var (
	ErrOutOfBounds = errors.New("block out of bounds")
	ErrBlockSize   = errors.New("buffer is not block-sized")
	ErrShortIO     = errors.New("short transfer")
	ErrClosed      = errors.New("disk is closed")
)

// Error records a failed operation on the backing store.
type Error struct {
	Op   string
	Addr uint64
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("disk %s %d: %v", e.Op, e.Addr, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ioError(op string, a uint64, err error) error {
	return &Error{Op: op, Addr: a, Err: err}
}

// IsIOError reports whether err (or anything it wraps) came from the backing
// store.
func IsIOError(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

func checkAccess(op string, a uint64, b Block, numBlocks uint64) error {
	if uint64(len(b)) != BlockSize {
		return ioError(op, a, fmt.Errorf("%w (%d bytes)", ErrBlockSize, len(b)))
	}
	if a >= numBlocks {
		return ioError(op, a, ErrOutOfBounds)
	}
	return nil
}
