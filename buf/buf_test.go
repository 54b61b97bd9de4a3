package buf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/vsfs-journal/addr"
	"github.com/mit-pdos/vsfs-journal/disk"
)

func TestInstallOneBit(t *testing.T) {
	assert.Equal(t, byte(0x10), installOneBit(byte(0x1F), byte(0x0), 4))
	assert.Equal(t, byte(0x0F), installOneBit(byte(0xF), byte(0x1F), 4))
	assert.Equal(t, byte(0x1F), installOneBit(byte(0x10), byte(0x1F), 4))
}

func TestBits(t *testing.T) {
	assert := assert.New(t)
	b := MkBufLoad(17, make(disk.Block, disk.BlockSize))
	a, bit := addr.MkBitAddr(17, 10)
	set, err := b.BitIsSet(a, bit)
	require.NoError(t, err)
	assert.False(set)
	assert.False(b.IsDirty())

	require.NoError(t, b.SetBit(a, bit, true))
	assert.Equal(byte(0x04), b.Blk[1])
	set, _ = b.BitIsSet(a, bit)
	assert.True(set)
	assert.True(b.IsDirty())
	assert.True(b.Changed())

	require.NoError(t, b.SetBit(a, bit, false))
	assert.True(b.IsDirty())
	assert.False(b.Changed(), "back to the loaded contents")
}

func TestInstall(t *testing.T) {
	assert := assert.New(t)
	b := MkBuf(19, make(disk.Block, disk.BlockSize))
	require.NoError(t, b.Install(addr.MkAddr(19, 56), []byte{1, 2, 3}))
	assert.Equal([]byte{0, 1, 2, 3, 0}, b.Blk[55:60])
	assert.True(b.Changed(), "fresh bufs always count as changed")

	s, err := b.Slice(addr.MkAddr(19, 56), 2)
	require.NoError(t, err)
	assert.Equal([]byte{1, 2}, s)

	err = b.Install(addr.MkAddr(20, 0), []byte{1})
	assert.True(errors.Is(err, ErrRange), "wrong block")
	err = b.Install(addr.MkAddr(19, disk.BlockSize-1), []byte{1, 2})
	assert.True(errors.Is(err, ErrRange), "past the end")
}

func TestBufMapOrder(t *testing.T) {
	assert := assert.New(t)
	m := MkBufMap()
	for _, bn := range []uint64{21, 17, 19} {
		m.Insert(MkBuf(bn, make(disk.Block, disk.BlockSize)))
	}
	m.Lookup(19).SetDirty()
	m.Lookup(21).SetDirty()
	m.Insert(MkBuf(21, m.Lookup(21).Blk))
	m.Lookup(21).SetDirty()

	assert.Equal(uint64(2), m.Ndirty())
	var order []uint64
	for _, b := range m.DirtyBufs() {
		order = append(order, b.Blkno)
	}
	assert.Equal([]uint64{21, 19}, order)
	assert.Nil(m.Lookup(18))
}
