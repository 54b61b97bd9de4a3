// Package super describes the fixed geometry of a vsfs image.
//
// A Layout is an immutable value: every component that touches the image is
// handed one at construction, so alternate geometries can be exercised in
// isolation.
package super

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/mit-pdos/vsfs-journal/addr"
	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/util"
)

// SUPERBLOCK is the block number of the superblock in every layout.
const SUPERBLOCK common.Bnum = 0

var ErrBadLayout = errors.New("invalid layout")

type Layout struct {
	BlockSize     uint64      `yaml:"blockSize"`
	JournalStart  common.Bnum `yaml:"journalStart"`
	JournalBlocks uint64      `yaml:"journalBlocks"`
	InodeBitmap   common.Bnum `yaml:"inodeBitmap"`
	DataBitmap    common.Bnum `yaml:"dataBitmap"`
	InodeStart    common.Bnum `yaml:"inodeStart"`
	InodeBlocks   uint64      `yaml:"inodeBlocks"`
	DataStart     common.Bnum `yaml:"dataStart"` // root directory's data block
}

// DefaultLayout is the geometry written by the vsfs mkfs tool: superblock,
// 16 journal blocks, the two bitmaps, two inode-table blocks and the root
// directory block.
func DefaultLayout() Layout {
	return Layout{
		BlockSize:     disk.BlockSize,
		JournalStart:  1,
		JournalBlocks: 16,
		InodeBitmap:   17,
		DataBitmap:    18,
		InodeStart:    19,
		InodeBlocks:   2,
		DataStart:     21,
	}
}

type region struct {
	name  string
	start common.Bnum
	n     uint64
}

func (l Layout) regions() []region {
	return []region{
		{"superblock", SUPERBLOCK, 1},
		{"journal", l.JournalStart, l.JournalBlocks},
		{"inode bitmap", l.InodeBitmap, 1},
		{"data bitmap", l.DataBitmap, 1},
		{"inode table", l.InodeStart, l.InodeBlocks},
		{"root directory", l.DataStart, 1},
	}
}

// Validate checks that the regions are non-empty and pairwise disjoint, and
// that every on-disk counter the journal stores fits in 32 bits.
func (l Layout) Validate() error {
	if l.BlockSize != disk.BlockSize {
		return fmt.Errorf("%w: block size %d, disk uses %d",
			ErrBadLayout, l.BlockSize, disk.BlockSize)
	}
	if l.JournalBlocks == 0 || l.InodeBlocks == 0 {
		return fmt.Errorf("%w: journal and inode table need at least one block",
			ErrBadLayout)
	}
	if l.JournalBlocks > math.MaxUint32/l.BlockSize {
		return fmt.Errorf("%w: journal of %d blocks overflows its length counter",
			ErrBadLayout, l.JournalBlocks)
	}
	rs := l.regions()
	for _, r := range rs {
		if r.start+r.n < r.start || r.start+r.n-1 > math.MaxUint32 {
			return fmt.Errorf("%w: %s at %d is not addressable",
				ErrBadLayout, r.name, r.start)
		}
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].start < rs[j].start })
	for i := 1; i < len(rs); i++ {
		prev := rs[i-1]
		if prev.start+prev.n > rs[i].start {
			return fmt.Errorf("%w: %s overlaps %s", ErrBadLayout, prev.name, rs[i].name)
		}
	}
	return nil
}

// MaxBnum is the highest block number the layout uses.
func (l Layout) MaxBnum() common.Bnum {
	var hi common.Bnum
	for _, r := range l.regions() {
		if end := r.start + r.n - 1; end > hi {
			hi = end
		}
	}
	return hi
}

func (l Layout) BlockOffset(bn common.Bnum) uint64 {
	return uint64(bn) * l.BlockSize
}

func (l Layout) InJournal(bn common.Bnum) bool {
	return bn >= l.JournalStart && bn < l.JournalStart+l.JournalBlocks
}

func (l Layout) RootDir() common.Bnum {
	return l.DataStart
}

func (l Layout) InodesPerBlock() uint64 {
	return l.BlockSize / common.INODESZ
}

// NInode is the number of allocatable inodes: one per inode-table slot,
// limited by what a single bitmap block can track.
func (l Layout) NInode() common.Inum {
	n := l.InodeBlocks * l.InodesPerBlock()
	return common.Inum(util.Min(n, l.BlockSize*8))
}

func (l Layout) Inum2Addr(inum common.Inum) addr.Addr {
	ipb := l.InodesPerBlock()
	return addr.MkAddr(l.InodeStart+common.Bnum(uint64(inum)/ipb),
		(uint64(inum)%ipb)*common.INODESZ)
}

func (l Layout) DirentsPerBlock() uint64 {
	return l.BlockSize / common.DIRENTSZ
}

func (l Layout) DirentOffset(slot uint64) uint64 {
	return slot * common.DIRENTSZ
}
