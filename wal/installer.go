package wal

import (
	"github.com/mit-pdos/vsfs-journal/util"
)

type scanResult struct {
	txns uint64
	end  uint64 // record offset just past the last COMMIT
}

// scan walks the first used record bytes and hands every complete
// transaction to apply, in journal order. It stops at the first record that
// is truncated, carries an unknown tag, or names a block that is not a home
// location; DATA records not followed by a COMMIT are dropped.
func (l *Walog) scan(used uint64, apply func(txn []Update) error) (scanResult, error) {
	var res scanResult
	var pending []Update
	recsz := DataRecordSize(l.layout.BlockSize)
	pos := uint64(0)
loop:
	for pos < used {
		if used-pos < TAGSZ {
			util.DPrintf(1, "scan: %d stray bytes at %d\n", used-pos, pos)
			break
		}
		b, err := l.log.readAt(HDRSZ+pos, TAGSZ)
		if err != nil {
			return res, err
		}
		switch decodeTag(b) {
		case tagData:
			if used-pos < recsz {
				util.DPrintf(1, "scan: truncated record at %d\n", pos)
				break loop
			}
			rec, err := l.log.readAt(HDRSZ+pos, recsz)
			if err != nil {
				return res, err
			}
			u := decodeData(rec)
			if !l.validHome(u.Addr) {
				util.DPrintf(1, "scan: record at %d targets block %d\n", pos, u.Addr)
				break loop
			}
			pending = append(pending, u)
			pos += recsz
		case tagCommit:
			if err := apply(pending); err != nil {
				return res, err
			}
			pending = nil
			pos += COMMITSZ
			res.txns++
			res.end = pos
		default:
			util.DPrintf(1, "scan: unknown tag at %d\n", pos)
			break loop
		}
	}
	if len(pending) > 0 {
		util.DPrintf(1, "scan: discarding %d uncommitted records\n", len(pending))
	}
	return res, nil
}

// installBlocks writes the updates in bufs to their home locations.
func (l *Walog) installBlocks(bufs []Update) error {
	for i, buf := range bufs {
		util.DPrintf(5, "installBlocks: write log block %d to %d\n", i, buf.Addr)
		if err := l.d.Write(buf.Addr, buf.Block); err != nil {
			return err
		}
	}
	return nil
}

// Install replays every committed transaction to its home locations and then
// empties the journal. It returns the number of transactions replayed.
//
// Install is idempotent: a crash at any point leaves the header intact, and
// replaying the same transactions again writes the same blocks.
func (l *Walog) Install() (uint64, error) {
	used, err := l.committed()
	if err != nil {
		return 0, err
	}
	if used == 0 {
		util.DPrintf(1, "Install: journal empty\n")
		return 0, nil
	}
	res, err := l.scan(used, l.installBlocks)
	if err != nil {
		return 0, err
	}
	if res.end < used {
		util.DPrintf(1, "Install: ignoring %d bytes after %d\n", used-res.end, res.end)
	}
	// home blocks must be durable before the journal is emptied
	if err := l.d.Barrier(); err != nil {
		return 0, err
	}
	if err := l.writeHdr(0); err != nil {
		return 0, err
	}
	if err := l.d.Barrier(); err != nil {
		return 0, err
	}
	util.DPrintf(1, "Installed %d transactions\n", res.txns)
	return res.txns, nil
}
