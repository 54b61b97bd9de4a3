package inode

import (
	"github.com/tchajed/marshal"

	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/jrnl"
	"github.com/mit-pdos/vsfs-journal/super"
	"github.com/mit-pdos/vsfs-journal/util"
)

type Kind uint16

const (
	KFREE Kind = 0
	KFILE Kind = 1
	KDIR  Kind = 2
)

type Inode struct {
	Inum   common.Inum
	Kind   Kind
	Links  uint16
	Size   uint32
	Blocks [common.NDIRECT]uint32
}

func MkFile(inum common.Inum) *Inode {
	return &Inode{Inum: inum, Kind: KFILE, Links: 1}
}

// Encode lays the inode out in common.INODESZ bytes; the kind and link count
// share the first word, kind in the low half.
func (ip *Inode) Encode() []byte {
	enc := marshal.NewEnc(common.INODESZ)
	enc.PutInt32(uint32(ip.Kind) | uint32(ip.Links)<<16)
	enc.PutInt32(ip.Size)
	for _, bn := range ip.Blocks {
		enc.PutInt32(bn)
	}
	return enc.Finish()
}

func Decode(data []byte, inum common.Inum) *Inode {
	ip := new(Inode)
	dec := marshal.NewDec(data)
	ip.Inum = inum
	w := dec.GetInt32()
	ip.Kind = Kind(w & 0xffff)
	ip.Links = uint16(w >> 16)
	ip.Size = dec.GetInt32()
	for i := range ip.Blocks {
		ip.Blocks[i] = dec.GetInt32()
	}
	return ip
}

func ReadInode(op *jrnl.Op, l super.Layout, inum common.Inum) (*Inode, error) {
	a := l.Inum2Addr(inum)
	buffer, err := op.ReadBuf(a.Blkno)
	if err != nil {
		return nil, err
	}
	data, err := buffer.Slice(a, common.INODESZ)
	if err != nil {
		return nil, err
	}
	return Decode(data, inum), nil
}

func (ip *Inode) WriteInode(op *jrnl.Op, l super.Layout) error {
	a := l.Inum2Addr(ip.Inum)
	buffer, err := op.ReadBuf(a.Blkno)
	if err != nil {
		return err
	}
	util.DPrintf(1, "WriteInode %v\n", ip)
	return buffer.Install(a, ip.Encode())
}
