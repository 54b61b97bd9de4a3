package alloc

import (
	"errors"

	"github.com/mit-pdos/vsfs-journal/addr"
	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/jrnl"
	"github.com/mit-pdos/vsfs-journal/util"
)

var ErrNoFree = errors.New("no free bit")

// Allocator uses a bit map to allocate numbers. Bit 0 corresponds to number
// 0, bit 1 to 1, and so on; only numbers below max are handed out.
type Alloc struct {
	start common.Bnum
	max   uint64
}

func MkAlloc(start common.Bnum, max uint64) *Alloc {
	a := &Alloc{
		start: start,
		max:   max,
	}
	return a
}

func popCnt(b byte) uint64 {
	var count uint64
	var x = b
	for i := uint64(0); i < 8; i++ {
		count += uint64(x & 1)
		x = x >> 1
	}
	return count
}

// AllocNum marks the lowest clear bit as used within op and returns its
// number.
func (a *Alloc) AllocNum(op *jrnl.Op) (uint64, error) {
	for num := uint64(0); num < a.max; num++ {
		ad, bit := addr.MkBitAddr(a.start, num)
		b, err := op.ReadBuf(ad.Blkno)
		if err != nil {
			return 0, err
		}
		used, err := b.BitIsSet(ad, bit)
		if err != nil {
			return 0, err
		}
		util.DPrintf(10, "AllocNum: num %d used %v\n", num, used)
		if !used {
			if err := b.SetBit(ad, bit, true); err != nil {
				return 0, err
			}
			return num, nil
		}
	}
	return 0, ErrNoFree
}

// NumFree counts the clear bits below max.
func (a *Alloc) NumFree(op *jrnl.Op) (uint64, error) {
	var used uint64
	for num := uint64(0); num < a.max; num += 8 {
		ad, _ := addr.MkBitAddr(a.start, num)
		b, err := op.ReadBuf(ad.Blkno)
		if err != nil {
			return 0, err
		}
		s, err := b.Slice(ad, 1)
		if err != nil {
			return 0, err
		}
		v := s[0]
		if n := a.max - num; n < 8 {
			v &= byte(1<<n) - 1
		}
		used += popCnt(v)
	}
	return a.max - used, nil
}
