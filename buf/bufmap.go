package buf

import (
	"github.com/mit-pdos/vsfs-journal/common"
)

//
// A map from block numbers to bufs that remembers insertion order.
//

type BufMap struct {
	bufs  map[common.Bnum]*Buf
	order []common.Bnum
}

func MkBufMap() *BufMap {
	a := &BufMap{
		bufs: make(map[common.Bnum]*Buf),
	}
	return a
}

func (bmap *BufMap) Insert(buf *Buf) {
	if _, ok := bmap.bufs[buf.Blkno]; !ok {
		bmap.order = append(bmap.order, buf.Blkno)
	}
	bmap.bufs[buf.Blkno] = buf
}

func (bmap *BufMap) Lookup(bn common.Bnum) *Buf {
	return bmap.bufs[bn]
}

func (bmap *BufMap) Ndirty() uint64 {
	n := uint64(0)
	for _, b := range bmap.bufs {
		if b.dirty {
			n += 1
		}
	}
	return n
}

// DirtyBufs returns the dirty bufs in the order they were first inserted.
func (bmap *BufMap) DirtyBufs() []*Buf {
	bufs := make([]*Buf, 0)
	for _, bn := range bmap.order {
		b := bmap.bufs[bn]
		if b.dirty {
			bufs = append(bufs, b)
		}
	}
	return bufs
}
