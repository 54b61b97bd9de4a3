package common

import (
	"github.com/mit-pdos/vsfs-journal/disk"
)

const (
	NBITBLOCK uint64 = disk.BlockSize * 8

	INODESZ uint64 = 56 // on-disk size
	NDIRECT uint64 = 12 // direct block pointers per inode

	DIRENTSZ   uint64 = 32 // on-disk size
	MAXNAMELEN uint64 = 28 // name field, including the terminator
)

type Inum uint64
type Bnum = uint64

const NULLINUM Inum = 0
