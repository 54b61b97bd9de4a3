package addr

import (
	"github.com/mit-pdos/vsfs-journal/common"
)

// Addr identifies the start of a disk object.
//
// Blkno is the block number containing the object, and Off is the location of
// the object within the block (expressed as a byte offset). The size of the
// object is determined by the context in which Addr is used.
type Addr struct {
	Blkno common.Bnum
	Off   uint64 // offset in bytes
}

func MkAddr(blkno common.Bnum, off uint64) Addr {
	return Addr{Blkno: blkno, Off: off}
}

// MkBitAddr locates bit n of a bitmap that starts at block start. It returns
// the address of the byte holding the bit and the bit's index in that byte.
func MkBitAddr(start common.Bnum, n uint64) (Addr, uint64) {
	i := n / common.NBITBLOCK
	bit := n % common.NBITBLOCK
	return MkAddr(start+common.Bnum(i), bit/8), bit % 8
}
