package wal

import (
	"fmt"

	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/util"
)

// region presents the journal blocks as one byte array. Writes that cover
// part of a block read it first, since the header and the first records
// share a block.
type region struct {
	d       disk.Disk
	start   common.Bnum
	nblocks uint64
	bs      uint64
}

func (r *region) size() uint64 {
	return r.nblocks * r.bs
}

func (r *region) checkRange(off uint64, n uint64) error {
	if off+n < off || off+n > r.size() {
		return fmt.Errorf("journal range [%d, %d) outside %d bytes",
			off, off+n, r.size())
	}
	return nil
}

func (r *region) readAt(off uint64, n uint64) ([]byte, error) {
	if err := r.checkRange(off, n); err != nil {
		return nil, err
	}
	out := make([]byte, 0, n)
	for n > 0 {
		boff := off % r.bs
		cnt := util.Min(r.bs-boff, n)
		blk, err := r.d.Read(r.start + off/r.bs)
		if err != nil {
			return nil, err
		}
		out = append(out, blk[boff:boff+cnt]...)
		off += cnt
		n -= cnt
	}
	return out, nil
}

func (r *region) writeAt(off uint64, data []byte) error {
	if err := r.checkRange(off, uint64(len(data))); err != nil {
		return err
	}
	for len(data) > 0 {
		bn := r.start + off/r.bs
		boff := off % r.bs
		cnt := util.Min(r.bs-boff, uint64(len(data)))
		var blk disk.Block
		if cnt == r.bs {
			blk = data[:cnt]
		} else {
			var err error
			blk, err = r.d.Read(bn)
			if err != nil {
				return err
			}
			copy(blk[boff:], data[:cnt])
		}
		util.DPrintf(10, "region: write %d bytes to block %d at %d\n", cnt, bn, boff)
		if err := r.d.Write(bn, blk); err != nil {
			return err
		}
		off += cnt
		data = data[cnt:]
	}
	return nil
}
