// Package fs implements the metadata operations of vsfs on top of the
// journal: every operation reads through the journal, stages its block
// changes in a jrnl.Op and commits them as a single transaction. Nothing is
// written to home locations until Install.
package fs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mit-pdos/vsfs-journal/alloc"
	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/dir"
	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/inode"
	"github.com/mit-pdos/vsfs-journal/jrnl"
	"github.com/mit-pdos/vsfs-journal/super"
	"github.com/mit-pdos/vsfs-journal/util"
	"github.com/mit-pdos/vsfs-journal/wal"
)

var (
	ErrNoFreeInode = errors.New("no free inode")
	ErrDirFull     = dir.ErrDirFull
	ErrInvalidName = errors.New("invalid file name")
)

type Fs struct {
	layout super.Layout
	log    *wal.Walog
	ialloc *alloc.Alloc
}

// MkFs attaches to the image on d. It does not replay the journal.
func MkFs(d disk.Disk, l super.Layout) (*Fs, error) {
	log, err := wal.MkLog(d, l)
	if err != nil {
		return nil, err
	}
	fs := &Fs{
		layout: l,
		log:    log,
		ialloc: alloc.MkAlloc(l.InodeBitmap, uint64(l.NInode())),
	}
	return fs, nil
}

func checkName(name string) error {
	if name == "" || strings.IndexByte(name, 0) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Create logs the creation of a regular file called name in the root
// directory and returns its inode number. The file exists once the
// transaction is committed; it reaches the home blocks at the next Install.
//
// Names longer than 27 bytes are truncated.
//
// The transaction normally holds the inode bitmap, inode-table and root
// directory blocks. A block whose contents end up unchanged is left out, so
// an image that already holds a file inode in a slot with a clear bitmap bit
// gets a two-block transaction.
func (fs *Fs) Create(name string) (common.Inum, error) {
	if err := checkName(name); err != nil {
		return common.NULLINUM, err
	}
	op := jrnl.Begin(fs.log)

	n, err := fs.ialloc.AllocNum(op)
	if errors.Is(err, alloc.ErrNoFree) {
		return common.NULLINUM, fmt.Errorf("%w: all %d in use", ErrNoFreeInode, fs.layout.NInode())
	}
	if err != nil {
		return common.NULLINUM, err
	}
	inum := common.Inum(n)

	ip := inode.MkFile(inum)
	if err := ip.WriteInode(op, fs.layout); err != nil {
		return common.NULLINUM, err
	}
	if _, err := dir.AddName(op, fs.layout, inum, name); err != nil {
		return common.NULLINUM, err
	}

	util.DPrintf(1, "Create: %q inum %d, %d dirty blocks\n", name, inum, op.NDirty())
	if err := op.CommitWait(); err != nil {
		return common.NULLINUM, err
	}
	return inum, nil
}

// Install replays the journal; see wal.Walog.Install.
func (fs *Fs) Install() (uint64, error) {
	return fs.log.Install()
}

type Status struct {
	Journal    wal.Stat
	NInode     uint64
	FreeInodes uint64
	FreeSlots  uint64 // free root directory slots
}

// Status reports journal usage and the free inodes and directory slots as
// seen through the journal.
func (fs *Fs) Status() (Status, error) {
	js, err := fs.log.Stat()
	if err != nil {
		return Status{}, err
	}
	op := jrnl.Begin(fs.log)
	freeInodes, err := fs.ialloc.NumFree(op)
	if err != nil {
		return Status{}, err
	}
	freeSlots, err := dir.NumFree(op, fs.layout)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Journal:    js,
		NInode:     uint64(fs.layout.NInode()),
		FreeInodes: freeInodes,
		FreeSlots:  freeSlots,
	}, nil
}
