package wal

import (
	"errors"
	"fmt"

	"github.com/mit-pdos/vsfs-journal/common"
	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/super"
	"github.com/mit-pdos/vsfs-journal/util"
)

var (
	ErrJournalFull = errors.New("journal full")
	ErrTxnTooBig   = fmt.Errorf("transaction larger than the journal: %w", ErrJournalFull)
	ErrBadUpdate   = errors.New("invalid update")
)

// Update is a full-block write destined for a home location.
type Update struct {
	Addr  common.Bnum
	Block disk.Block
}

func MkBlockData(bn common.Bnum, blk disk.Block) Update {
	b := Update{Addr: bn, Block: blk}
	return b
}

// Walog is the journal of one image. It holds no state besides the disk and
// the geometry: the on-disk header is the only source of truth, so a Walog
// can be dropped and recreated at any point.
type Walog struct {
	d      disk.Disk
	layout super.Layout
	nblks  uint64
	log    *region
}

// MkLog attaches to the journal of d. It does not replay anything; call
// Install for that.
func MkLog(d disk.Disk, layout super.Layout) (*Walog, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	sz, err := d.Size()
	if err != nil {
		return nil, err
	}
	if layout.MaxBnum() >= sz {
		return nil, fmt.Errorf("%w: image has %d blocks, layout needs %d",
			super.ErrBadLayout, sz, layout.MaxBnum()+1)
	}
	l := &Walog{
		d:      d,
		layout: layout,
		nblks:  sz,
		log: &region{
			d:       d,
			start:   layout.JournalStart,
			nblocks: layout.JournalBlocks,
			bs:      layout.BlockSize,
		},
	}
	util.DPrintf(1, "MkLog: journal at %d, %d bytes\n", layout.JournalStart, l.LogSz())
	return l, nil
}

// LogSz is the number of record bytes the journal can hold.
func (l *Walog) LogSz() uint64 {
	return l.log.size() - HDRSZ
}

func (l *Walog) TxnSize(n uint64) uint64 {
	return TxnSize(l.layout.BlockSize, n)
}

func (l *Walog) readHdr() (uint64, error) {
	b, err := l.log.readAt(0, HDRSZ)
	if err != nil {
		return 0, err
	}
	return decodeHdr(b), nil
}

func (l *Walog) writeHdr(used uint64) error {
	util.DPrintf(5, "writeHdr: used %d\n", used)
	return l.log.writeAt(0, encodeHdr(used))
}

// committed returns the header clamped to the journal's capacity.
func (l *Walog) committed() (uint64, error) {
	used, err := l.readHdr()
	if err != nil {
		return 0, err
	}
	if used > l.LogSz() {
		util.DPrintf(1, "header claims %d bytes, journal holds %d\n", used, l.LogSz())
		used = l.LogSz()
	}
	return used, nil
}

func (l *Walog) validHome(bn common.Bnum) bool {
	return bn < l.nblks && !l.layout.InJournal(bn)
}

// ReadInstalled reads bn from its home location, ignoring the journal.
func (l *Walog) ReadInstalled(bn common.Bnum) (disk.Block, error) {
	return l.d.Read(bn)
}

// Read returns the latest committed contents of bn: the newest copy in the
// journal if there is one, otherwise the home copy.
func (l *Walog) Read(bn common.Bnum) (disk.Block, error) {
	used, err := l.committed()
	if err != nil {
		return nil, err
	}
	var latest disk.Block
	if used > 0 {
		_, err := l.scan(used, func(txn []Update) error {
			for _, u := range txn {
				if u.Addr == bn {
					latest = u.Block
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	if latest != nil {
		util.DPrintf(5, "Read: %d from journal\n", bn)
		return latest, nil
	}
	return l.ReadInstalled(bn)
}

type Stat struct {
	Used     uint64 // bytes claimed by the header
	Capacity uint64
	Txns     uint64 // complete transactions within Used
	Blocks   uint64 // journal blocks holding the header and Used bytes
	Torn     bool   // Used covers bytes that do not form a complete transaction
}

func (s Stat) Free() uint64 {
	if s.Used > s.Capacity {
		return 0
	}
	return s.Capacity - s.Used
}

func (l *Walog) Stat() (Stat, error) {
	used, err := l.readHdr()
	if err != nil {
		return Stat{}, err
	}
	st := Stat{
		Used:     used,
		Capacity: l.LogSz(),
		Blocks:   util.RoundUp(HDRSZ+util.Min(used, l.LogSz()), l.layout.BlockSize),
	}
	if used == 0 {
		return st, nil
	}
	res, err := l.scan(util.Min(used, l.LogSz()), func([]Update) error { return nil })
	if err != nil {
		return Stat{}, err
	}
	st.Txns = res.txns
	st.Torn = res.end < used
	return st, nil
}
