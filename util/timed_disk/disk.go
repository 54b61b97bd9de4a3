package timed_disk

import (
	"io"
	"time"

	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/util/stats"
)

type Disk struct {
	d   disk.Disk
	ops [3]stats.Op
}

func New(d disk.Disk) *Disk {
	return &Disk{d: d}
}

const (
	readOp int = iota
	writeOp
	barrierOp
)

var ops = []string{"disk.Read", "disk.Write", "disk.Barrier"}

// assert that Disk implements disk.Disk
var _ disk.Disk = &Disk{}

func (d *Disk) ReadTo(a uint64, b disk.Block) error {
	defer d.ops[readOp].Record(time.Now())
	return d.d.ReadTo(a, b)
}

func (d *Disk) Read(a uint64) (disk.Block, error) {
	buf := make(disk.Block, disk.BlockSize)
	err := d.ReadTo(a, buf)
	return buf, err
}

func (d *Disk) Write(a uint64, b disk.Block) error {
	defer d.ops[writeOp].Record(time.Now())
	return d.d.Write(a, b)
}

func (d *Disk) Barrier() error {
	defer d.ops[barrierOp].Record(time.Now())
	return d.d.Barrier()
}

func (d *Disk) Size() (uint64, error) {
	return d.d.Size()
}

func (d *Disk) Close() error {
	return d.d.Close()
}

func (d *Disk) Reads() uint32 {
	return d.ops[readOp].Count()
}

func (d *Disk) Writes() uint32 {
	return d.ops[writeOp].Count()
}

func (d *Disk) Barriers() uint32 {
	return d.ops[barrierOp].Count()
}

func (d *Disk) WriteStats(w io.Writer) {
	stats.WriteTable(ops, d.ops[:], w)
}

func (d *Disk) ResetStats() {
	for i := range d.ops {
		d.ops[i].Reset()
	}
}
