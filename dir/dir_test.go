package dir

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/jrnl"
	"github.com/mit-pdos/vsfs-journal/super"
	"github.com/mit-pdos/vsfs-journal/wal"
)

func TestEncoding(t *testing.T) {
	assert := assert.New(t)
	b := DirEnt{Inum: 0x0102, Name: "notes.txt"}.Encode()
	assert.Len(b, 32)
	assert.Equal([]byte{2, 1, 0, 0}, b[0:4])
	assert.Equal("notes.txt", string(b[4:13]))
	assert.Equal(make([]byte, 19), b[13:], "NUL padded")
	assert.Equal(DirEnt{Inum: 0x0102, Name: "notes.txt"}, Decode(b))
}

func TestTruncate(t *testing.T) {
	assert := assert.New(t)
	long := strings.Repeat("a", 40)
	b := DirEnt{Inum: 1, Name: long}.Encode()
	assert.Equal(strings.Repeat("a", 27), string(b[4:31]))
	assert.Equal(byte(0), b[31], "always terminated")
	assert.Equal(strings.Repeat("a", 27), Decode(b).Name)

	assert.Equal(strings.Repeat("b", 27), Truncate(strings.Repeat("b", 28)))
	assert.Equal("short", Truncate("short"))
}

func TestIsFree(t *testing.T) {
	assert.True(t, DirEnt{}.IsFree())
	assert.False(t, DirEnt{Inum: 0, Name: "x"}.IsFree(), "inode 0 with a name is in use")
	assert.False(t, DirEnt{Inum: 3}.IsFree())
}

func TestAddName(t *testing.T) {
	assert := assert.New(t)
	l := super.DefaultLayout()
	log, err := wal.MkLog(disk.NewMemDisk(32), l)
	require.NoError(t, err)
	op := jrnl.Begin(log)

	n, err := NumFree(op, l)
	require.NoError(t, err)
	assert.Equal(uint64(126), n)

	for i := uint64(0); i < 126; i++ {
		slot, err := AddName(op, l, 0, "f")
		require.NoError(t, err)
		assert.Equal(FIRSTSLOT+i, slot)
	}
	_, err = AddName(op, l, 5, "g")
	assert.True(errors.Is(err, ErrDirFull))

	ents, err := ReadEnts(op, l)
	require.NoError(t, err)
	assert.Equal(DirEnt{}, ents[0], "reserved slots untouched")
	assert.Equal(DirEnt{Inum: 0, Name: "f"}, ents[127])
}
