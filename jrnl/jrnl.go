// Package jrnl is the top-level journal API.
//
// It provides atomic operations that are buffered locally and manipulate
// disk blocks via buffers of type *buf.Buf.
//
// The caller uses this interface by beginning an operation Op, reading and
// modifying blocks within the operation, and finally committing the buffered
// writes. Every block an operation reads is loaded once, through the journal,
// so it reflects all committed transactions whether or not they have been
// installed. CommitWait submits the dirty blocks as a single journal
// transaction; an operation that is never committed has no effect.
package jrnl

import (
	"github.com/mit-pdos/vsfs-journal/buf"
	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/util"
	"github.com/mit-pdos/vsfs-journal/wal"
)

// Op is an in-progress journal operation.
//
// Call CommitWait to persist the operation's writes.
// To abort the operation simply stop using it.
type Op struct {
	log  *wal.Walog
	bufs *buf.BufMap // map of bufs read/written by this operation
}

// Begin starts a local journal operation with no writes.
func Begin(log *wal.Walog) *Op {
	trans := &Op{
		log:  log,
		bufs: buf.MkBufMap(),
	}
	util.DPrintf(3, "Begin: %p\n", trans)
	return trans
}

func (op *Op) ReadBuf(bn common.Bnum) (*buf.Buf, error) {
	b := op.bufs.Lookup(bn)
	if b == nil {
		blk, err := op.log.Read(bn)
		if err != nil {
			return nil, err
		}
		b = buf.MkBufLoad(bn, blk)
		op.bufs.Insert(b)
	}
	return b, nil
}

// NDirty reports an upper bound on the number of blocks this operation will
// write when committed.
func (op *Op) NDirty() uint64 {
	return op.bufs.Ndirty()
}

// CommitWait durably commits the writes in the operation as one
// transaction, in the order the blocks were first read. Blocks that were
// written but ended up unchanged are left out.
//
// If CommitWait returns an error the operation had no logical effect. This
// can happen, for example, if the transaction does not fit in the on-disk
// journal (wal.ErrJournalFull).
func (op *Op) CommitWait() error {
	var txn []wal.Update
	for _, b := range op.bufs.DirtyBufs() {
		if !b.Changed() {
			util.DPrintf(5, "Commit: block %d unchanged\n", b.Blkno)
			continue
		}
		txn = append(txn, wal.MkBlockData(b.Blkno, b.Blk))
	}
	util.DPrintf(3, "Commit %p: %d blocks\n", op, len(txn))
	return op.log.Append(txn)
}
