package dir

import (
	"bytes"
	"errors"

	"github.com/tchajed/goose/machine"

	"github.com/mit-pdos/vsfs-journal/addr"
	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/jrnl"
	"github.com/mit-pdos/vsfs-journal/super"
	"github.com/mit-pdos/vsfs-journal/util"
)

var ErrDirFull = errors.New("directory full")

// Slots 0 and 1 hold "." and "..".
const FIRSTSLOT uint64 = 2

type DirEnt struct {
	Inum common.Inum
	Name string
}

// Truncate shortens name to what fits in an entry next to its terminator.
func Truncate(name string) string {
	if uint64(len(name)) >= common.MAXNAMELEN {
		return name[:common.MAXNAMELEN-1]
	}
	return name
}

func (de DirEnt) Encode() []byte {
	b := make([]byte, common.DIRENTSZ)
	machine.UInt32Put(b[0:4], uint32(de.Inum))
	copy(b[4:4+common.MAXNAMELEN-1], Truncate(de.Name))
	return b
}

func Decode(b []byte) DirEnt {
	name := b[4 : 4+common.MAXNAMELEN]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return DirEnt{
		Inum: common.Inum(machine.UInt32Get(b[0:4])),
		Name: string(name),
	}
}

// IsFree reports whether the slot can take a new entry. Inode 0 is a valid
// file, so an entry is only free if its name is empty too.
func (de DirEnt) IsFree() bool {
	return de.Inum == common.NULLINUM && de.Name == ""
}

func slotAddr(l super.Layout, slot uint64) addr.Addr {
	return addr.MkAddr(l.RootDir(), l.DirentOffset(slot))
}

// ReadEnts returns every slot of the root directory, free ones included.
func ReadEnts(op *jrnl.Op, l super.Layout) ([]DirEnt, error) {
	b, err := op.ReadBuf(l.RootDir())
	if err != nil {
		return nil, err
	}
	ents := make([]DirEnt, 0, l.DirentsPerBlock())
	for slot := uint64(0); slot < l.DirentsPerBlock(); slot++ {
		data, err := b.Slice(slotAddr(l, slot), common.DIRENTSZ)
		if err != nil {
			return nil, err
		}
		ents = append(ents, Decode(data))
	}
	return ents, nil
}

// AddName stores (inum, name) in the first free slot of the root directory,
// starting at FIRSTSLOT, and returns the slot. A slot with inode 0 but a
// non-empty name is in use (see IsFree), so an entry for inode 0 is never
// overwritten.
func AddName(op *jrnl.Op, l super.Layout, inum common.Inum, name string) (uint64, error) {
	ents, err := ReadEnts(op, l)
	if err != nil {
		return 0, err
	}
	for slot := FIRSTSLOT; slot < uint64(len(ents)); slot++ {
		if !ents[slot].IsFree() {
			continue
		}
		b, err := op.ReadBuf(l.RootDir())
		if err != nil {
			return 0, err
		}
		de := DirEnt{Inum: inum, Name: name}
		util.DPrintf(1, "AddName: %q -> %d in slot %d\n", de.Name, inum, slot)
		return slot, b.Install(slotAddr(l, slot), de.Encode())
	}
	return 0, ErrDirFull
}

func NumFree(op *jrnl.Op, l super.Layout) (uint64, error) {
	ents, err := ReadEnts(op, l)
	if err != nil {
		return 0, err
	}
	var n uint64
	for _, de := range ents[FIRSTSLOT:] {
		if de.IsFree() {
			n++
		}
	}
	return n, nil
}
