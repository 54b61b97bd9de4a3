// buf holds in-memory copies of disk blocks staged by an operation
package buf

import (
	"errors"
	"fmt"

	"github.com/goose-lang/std"

	"github.com/mit-pdos/vsfs-journal/addr"
	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/util"
)

var ErrRange = errors.New("object outside buffer")

// A Buf is a copy of one disk block, and the objects in it (inodes, bitmap
// bits, directory entries) are read and written in place.
type Buf struct {
	Blkno common.Bnum
	Blk   disk.Block
	orig  disk.Block // contents when loaded; nil for a fresh block
	dirty bool       // has this block been written to?
}

func MkBuf(bn common.Bnum, blk disk.Block) *Buf {
	b := &Buf{
		Blkno: bn,
		Blk:   blk,
		dirty: false,
	}
	return b
}

// MkBufLoad wraps a block read from disk, remembering its contents so
// Changed can tell whether writes had any effect.
func MkBufLoad(bn common.Bnum, blk disk.Block) *Buf {
	b := &Buf{
		Blkno: bn,
		Blk:   blk,
		orig:  util.CloneByteSlice(blk),
		dirty: false,
	}
	return b
}

func (buf *Buf) check(a addr.Addr, n uint64) error {
	if a.Blkno != buf.Blkno || a.Off+n < a.Off || a.Off+n > uint64(len(buf.Blk)) {
		return fmt.Errorf("%w: %d bytes at %v in block %d", ErrRange, n, a, buf.Blkno)
	}
	return nil
}

// Slice returns the n bytes at a, aliasing the block.
func (buf *Buf) Slice(a addr.Addr, n uint64) ([]byte, error) {
	if err := buf.check(a, n); err != nil {
		return nil, err
	}
	return buf.Blk[a.Off : a.Off+n], nil
}

// Install copies data into the block at a and marks the buffer dirty.
func (buf *Buf) Install(a addr.Addr, data []byte) error {
	if err := buf.check(a, uint64(len(data))); err != nil {
		return err
	}
	util.DPrintf(10, "%v: install %d bytes\n", a, len(data))
	copy(buf.Blk[a.Off:], data)
	buf.SetDirty()
	return nil
}

// Install 1 bit from src into dst, at offset bit. return new dst.
func installOneBit(src byte, dst byte, bit uint64) byte {
	var new byte = dst
	if src&(1<<bit) != dst&(1<<bit) {
		if src&(1<<bit) == 0 {
			// dst is 1, but should be 0
			new = new & ^(1 << bit)
		} else {
			// dst is 0, but should be 1
			new = new | (1 << bit)
		}
	}
	return new
}

// BitIsSet reports bit bit%8 of byte a.Off.
func (buf *Buf) BitIsSet(a addr.Addr, bit uint64) (bool, error) {
	b, err := buf.Slice(a, 1)
	if err != nil {
		return false, err
	}
	return b[0]&(1<<bit) != 0, nil
}

func (buf *Buf) SetBit(a addr.Addr, bit uint64, v bool) error {
	b, err := buf.Slice(a, 1)
	if err != nil {
		return err
	}
	var src byte
	if v {
		src = 1 << bit
	}
	b[0] = installOneBit(src, b[0], bit)
	buf.SetDirty()
	return nil
}

func (buf *Buf) IsDirty() bool {
	return buf.dirty
}

func (buf *Buf) SetDirty() {
	buf.dirty = true
}

// Changed reports whether the block differs from what was loaded.
func (buf *Buf) Changed() bool {
	if buf.orig == nil {
		return true
	}
	return !std.BytesEqual(buf.Blk, buf.orig)
}
