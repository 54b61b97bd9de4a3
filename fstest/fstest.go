// Package fstest builds fresh vsfs images for tests.
package fstest

import (
	"path/filepath"
	"testing"

	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/dir"
	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/super"
	"github.com/mit-pdos/vsfs-journal/util"
)

// Format zeroes every block the layout uses (an empty journal, clear
// bitmaps, free inodes) and writes the "." and ".." entries of the root
// directory.
func Format(d disk.Disk, l super.Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}
	zero := make(disk.Block, l.BlockSize)
	for bn := common.Bnum(0); bn <= l.MaxBnum(); bn++ {
		if err := d.Write(bn, zero); err != nil {
			return err
		}
	}
	root := make(disk.Block, l.BlockSize)
	copy(root[l.DirentOffset(0):], dir.DirEnt{Inum: common.NULLINUM, Name: "."}.Encode())
	copy(root[l.DirentOffset(1):], dir.DirEnt{Inum: common.NULLINUM, Name: ".."}.Encode())
	if err := d.Write(l.RootDir(), root); err != nil {
		return err
	}
	util.DPrintf(1, "Format: %d blocks\n", l.MaxBnum()+1)
	return d.Barrier()
}

// NewMemImage returns a formatted in-memory image with the default layout.
func NewMemImage(t testing.TB) disk.Disk {
	t.Helper()
	l := super.DefaultLayout()
	d := disk.NewMemDisk(l.MaxBnum() + 1)
	if err := Format(d, l); err != nil {
		t.Fatalf("format: %v", err)
	}
	return d
}

// NewFileImage formats an image file in a temporary directory and returns
// its path.
func NewFileImage(t testing.TB) string {
	t.Helper()
	l := super.DefaultLayout()
	path := filepath.Join(t.TempDir(), "vsfs.img")
	d, err := disk.NewFileDisk(path, l.MaxBnum()+1)
	if err != nil {
		t.Fatalf("create image: %v", err)
	}
	defer d.Close()
	if err := Format(d, l); err != nil {
		t.Fatalf("format: %v", err)
	}
	return path
}
