package disk

import (
	"fmt"

	goosedisk "github.com/tchajed/goose/machine/disk"
	"golang.org/x/sys/unix"
)

var _ Disk = (*fileDisk)(nil)

type fileDisk struct {
	fd        int
	numBlocks uint64
	closed    bool
}

// NewFileDisk creates (or resizes) the image at path to hold numBlocks
// blocks.
func NewFileDisk(path string, numBlocks uint64) (Disk, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT, 0666)
	if err != nil {
		return nil, ioError("open", 0, fmt.Errorf("%s: %w", path, err))
	}
	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		unix.Close(fd)
		return nil, ioError("stat", 0, fmt.Errorf("%s: %w", path, err))
	}
	if (stat.Mode&unix.S_IFREG) != 0 && uint64(stat.Size) != numBlocks*BlockSize {
		err = unix.Ftruncate(fd, int64(numBlocks*BlockSize))
		if err != nil {
			unix.Close(fd)
			return nil, ioError("truncate", 0, fmt.Errorf("%s: %w", path, err))
		}
	}
	return &fileDisk{fd: fd, numBlocks: numBlocks}, nil
}

// OpenFileDisk opens an existing image without creating or resizing it. The
// disk size is the number of whole blocks in the file.
func OpenFileDisk(path string) (Disk, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, ioError("open", 0, fmt.Errorf("%s: %w", path, err))
	}
	var stat unix.Stat_t
	err = unix.Fstat(fd, &stat)
	if err != nil {
		unix.Close(fd)
		return nil, ioError("stat", 0, fmt.Errorf("%s: %w", path, err))
	}
	return &fileDisk{fd: fd, numBlocks: uint64(stat.Size) / BlockSize}, nil
}

func preadFull(fd int, b []byte, off int64) error {
	for len(b) > 0 {
		n, err := unix.Pread(fd, b, off)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrShortIO
		}
		b = b[n:]
		off += int64(n)
	}
	return nil
}

func pwriteFull(fd int, b []byte, off int64) error {
	for len(b) > 0 {
		n, err := unix.Pwrite(fd, b, off)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrShortIO
		}
		b = b[n:]
		off += int64(n)
	}
	return nil
}

func (d *fileDisk) ReadTo(a uint64, buf Block) error {
	if d.closed {
		return ioError("read", a, ErrClosed)
	}
	if err := checkAccess("read", a, buf, d.numBlocks); err != nil {
		return err
	}
	if err := preadFull(d.fd, buf, int64(a*BlockSize)); err != nil {
		return ioError("read", a, err)
	}
	return nil
}

func (d *fileDisk) Read(a uint64) (Block, error) {
	buf := make([]byte, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *fileDisk) Write(a uint64, v Block) error {
	if d.closed {
		return ioError("write", a, ErrClosed)
	}
	if err := checkAccess("write", a, v, d.numBlocks); err != nil {
		return err
	}
	if err := pwriteFull(d.fd, v, int64(a*BlockSize)); err != nil {
		return ioError("write", a, err)
	}
	return nil
}

func (d *fileDisk) Size() (uint64, error) {
	return d.numBlocks, nil
}

func (d *fileDisk) Barrier() error {
	if d.closed {
		return ioError("barrier", 0, ErrClosed)
	}
	// NOTE: on macOS, this flushes to the drive but doesn't actually issue a
	// disk barrier; see https://golang.org/src/internal/poll/fd_fsync_darwin.go
	// for more details. The correct replacement is to issue a fcntl syscall with
	// cmd F_FULLFSYNC.
	if err := unix.Fsync(d.fd); err != nil {
		return ioError("barrier", 0, err)
	}
	return nil
}

func (d *fileDisk) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := unix.Close(d.fd); err != nil {
		return ioError("close", 0, err)
	}
	return nil
}

/////////////////////////
/////////////////////////

var _ Disk = (*memDisk)(nil)

// memDisk checks bounds before handing requests to goose's in-memory disk,
// which panics on misuse.
type memDisk struct {
	d      goosedisk.Disk
	closed bool
}

func NewMemDisk(numBlocks uint64) Disk {
	return &memDisk{d: goosedisk.NewMemDisk(numBlocks)}
}

func (d *memDisk) ReadTo(a uint64, buf Block) error {
	if d.closed {
		return ioError("read", a, ErrClosed)
	}
	if err := checkAccess("read", a, buf, d.d.Size()); err != nil {
		return err
	}
	d.d.ReadTo(a, buf)
	return nil
}

func (d *memDisk) Read(a uint64) (Block, error) {
	buf := make(Block, BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *memDisk) Write(a uint64, v Block) error {
	if d.closed {
		return ioError("write", a, ErrClosed)
	}
	if err := checkAccess("write", a, v, d.d.Size()); err != nil {
		return err
	}
	d.d.Write(a, v)
	return nil
}

func (d *memDisk) Size() (uint64, error) {
	// this never changes so we assume it's safe to run lock-free
	return d.d.Size(), nil
}

func (d *memDisk) Barrier() error {
	if d.closed {
		return ioError("barrier", 0, ErrClosed)
	}
	d.d.Barrier()
	return nil
}

// Close makes this handle unusable; the blocks stay in memory so tests can
// reopen them with Reopen.
func (d *memDisk) Close() error {
	d.closed = true
	return nil
}

// Reopen returns a fresh handle on the same in-memory blocks, as a process
// restart would see them.
func Reopen(d Disk) Disk {
	if md, ok := d.(*memDisk); ok {
		return &memDisk{d: md.d}
	}
	return d
}
