package jrnl_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/vsfs-journal/addr"
	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/jrnl"
	"github.com/mit-pdos/vsfs-journal/super"
	"github.com/mit-pdos/vsfs-journal/wal"
)

func mkLog(t *testing.T) (disk.Disk, *wal.Walog) {
	d := disk.NewMemDisk(32)
	log, err := wal.MkLog(d, super.DefaultLayout())
	require.NoError(t, err)
	return d, log
}

func TestJrnlWriteRead(t *testing.T) {
	assert := assert.New(t)
	d, log := mkLog(t)

	op := jrnl.Begin(log)
	b, err := op.ReadBuf(19)
	require.NoError(t, err)
	require.NoError(t, b.Install(addr.MkAddr(19, 56), []byte{1, 2, 3}))
	b2, err := op.ReadBuf(19)
	require.NoError(t, err)
	assert.Same(b, b2, "a block is loaded once per operation")
	assert.Equal(uint64(1), op.NDirty())
	require.NoError(t, op.CommitWait())

	home, err := d.Read(19)
	require.NoError(t, err)
	assert.Equal(byte(0), home[56], "commit does not install")

	op = jrnl.Begin(log)
	b, err = op.ReadBuf(19)
	require.NoError(t, err)
	assert.Equal([]byte{1, 2, 3}, b.Blk[56:59], "reads see committed writes")
}

func TestJrnlAbort(t *testing.T) {
	_, log := mkLog(t)
	op := jrnl.Begin(log)
	b, err := op.ReadBuf(17)
	require.NoError(t, err)
	a, bit := addr.MkBitAddr(17, 3)
	require.NoError(t, b.SetBit(a, bit, true))

	op = jrnl.Begin(log)
	b, err = op.ReadBuf(17)
	require.NoError(t, err)
	set, err := b.BitIsSet(a, bit)
	require.NoError(t, err)
	assert.False(t, set, "uncommitted op has no effect")
}

func TestJrnlCommitOrder(t *testing.T) {
	assert := assert.New(t)
	_, log := mkLog(t)
	op := jrnl.Begin(log)
	for _, bn := range []uint64{17, 18, 19, 21} {
		b, err := op.ReadBuf(bn)
		require.NoError(t, err)
		if bn != 18 {
			require.NoError(t, b.Install(addr.MkAddr(bn, 0), []byte{byte(bn)}))
		}
	}
	require.NoError(t, op.CommitWait())

	st, err := log.Stat()
	require.NoError(t, err)
	assert.Equal(log.TxnSize(3), st.Used, "clean blocks are not logged")
}

func TestJrnlUnchangedSkipped(t *testing.T) {
	_, log := mkLog(t)
	op := jrnl.Begin(log)
	b, err := op.ReadBuf(17)
	require.NoError(t, err)
	a, bit := addr.MkBitAddr(17, 0)
	require.NoError(t, b.SetBit(a, bit, true))
	require.NoError(t, b.SetBit(a, bit, false))
	require.NoError(t, op.CommitWait())

	st, err := log.Stat()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), st.Used)
}

func TestJrnlTooBig(t *testing.T) {
	_, log := mkLog(t)
	op := jrnl.Begin(log)
	for bn := uint64(17); bn < 32; bn++ {
		b, err := op.ReadBuf(bn)
		require.NoError(t, err)
		require.NoError(t, b.Install(addr.MkAddr(bn, 0), []byte{1}))
	}
	// 15 blocks fit
	require.NoError(t, op.CommitWait())

	op = jrnl.Begin(log)
	b, err := op.ReadBuf(0)
	require.NoError(t, err)
	require.NoError(t, b.Install(addr.MkAddr(0, 0), []byte{1}))
	err = op.CommitWait()
	assert.True(t, errors.Is(err, wal.ErrJournalFull))
}
