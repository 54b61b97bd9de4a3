package wal

import (
	"fmt"
	"math"

	"github.com/mit-pdos/vsfs-journal/util"
)

func (l *Walog) checkUpdate(u Update) error {
	if uint64(len(u.Block)) != l.layout.BlockSize {
		return fmt.Errorf("%w: block %d has %d bytes", ErrBadUpdate, u.Addr, len(u.Block))
	}
	if u.Addr > math.MaxUint32 || !l.validHome(u.Addr) {
		return fmt.Errorf("%w: block %d is not a home location", ErrBadUpdate, u.Addr)
	}
	return nil
}

// logBlocks writes the DATA records for txn starting at record offset pos,
// followed by the COMMIT record.
func (l *Walog) logBlocks(pos uint64, txn []Update) error {
	for _, u := range txn {
		util.DPrintf(5, "logBlocks: %d to journal offset %d\n", u.Addr, pos)
		if err := l.log.writeAt(HDRSZ+pos, encodeData(u)); err != nil {
			return err
		}
		pos += DataRecordSize(l.layout.BlockSize)
	}
	return l.log.writeAt(HDRSZ+pos, encodeCommit())
}

// Append durably commits txn to the journal. When it returns nil the
// transaction survives a crash; when it fails the journal still describes
// exactly the transactions committed before it.
//
// The updates are applied at install time in the order given, so a later
// update to the same block wins.
func (l *Walog) Append(txn []Update) error {
	if len(txn) == 0 {
		return nil
	}
	for _, u := range txn {
		if err := l.checkUpdate(u); err != nil {
			return err
		}
	}
	need := l.TxnSize(uint64(len(txn)))
	if need > l.LogSz() {
		return fmt.Errorf("%w: %d blocks need %d bytes, journal holds %d",
			ErrTxnTooBig, len(txn), need, l.LogSz())
	}
	used, err := l.readHdr()
	if err != nil {
		return err
	}
	if util.SumOverflows(used, need) || used+need > l.LogSz() {
		return fmt.Errorf("%w: %d of %d bytes used, transaction needs %d",
			ErrJournalFull, used, l.LogSz(), need)
	}

	if err := l.logBlocks(used, txn); err != nil {
		return err
	}
	// records must be durable before the header covers them
	if err := l.d.Barrier(); err != nil {
		return err
	}
	if err := l.writeHdr(used + need); err != nil {
		return err
	}
	if err := l.d.Barrier(); err != nil {
		return err
	}
	util.DPrintf(1, "Append: %d blocks, used %d -> %d\n", len(txn), used, used+need)
	return nil
}
