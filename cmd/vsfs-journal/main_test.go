package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mit-pdos/vsfs-journal/config"
	"github.com/mit-pdos/vsfs-journal/dir"
	"github.com/mit-pdos/vsfs-journal/disk"
	"github.com/mit-pdos/vsfs-journal/fstest"
)

type result struct {
	stdout string
	stderr string
	code   int
}

func run(t *testing.T, image string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(&config.Config{Image: image}, &stdout, &stderr)
	err := app.Run(append([]string{"vsfs-journal"}, args...))
	return result{stdout: stdout.String(), stderr: stderr.String(), code: exitCode(err)}
}

func readBlock(t *testing.T, path string, bn uint64) disk.Block {
	d, err := disk.OpenFileDisk(path)
	require.NoError(t, err)
	defer d.Close()
	b, err := d.Read(bn)
	require.NoError(t, err)
	return b
}

func TestCreateInstall(t *testing.T) {
	assert := assert.New(t)
	image := fstest.NewFileImage(t)

	r := run(t, image, "create", "notes.txt")
	assert.Equal(0, r.code)
	assert.Equal("Logged creation of notes.txt to journal.\n", r.stdout)
	assert.Equal([]byte{0x1c, 0x30, 0, 0}, readBlock(t, image, 1)[0:4])

	r = run(t, image, "install")
	assert.Equal(0, r.code)
	assert.Equal("Journal installed\n", r.stdout)
	assert.Equal([]byte{0, 0, 0, 0}, readBlock(t, image, 1)[0:4])
	assert.Equal(dir.DirEnt{Inum: 0, Name: "notes.txt"},
		dir.Decode(readBlock(t, image, 21)[64:96]))

	r = run(t, image, "install")
	assert.Equal(0, r.code, "installing an empty journal succeeds")
}

func TestImageFlag(t *testing.T) {
	image := fstest.NewFileImage(t)
	r := run(t, "does-not-exist.img", "-i", image, "create", "a")
	assert.Equal(t, 0, r.code, r.stderr)
}

func TestJournalFullExit(t *testing.T) {
	image := fstest.NewFileImage(t)
	for i := 0; i < 5; i++ {
		r := run(t, image, "create", fmt.Sprintf("f%d", i))
		require.Equal(t, 0, r.code)
	}
	r := run(t, image, "create", "f5")
	assert.Equal(t, exitJournalFull, r.code)
	assert.Empty(t, r.stdout)
}

func TestDirFullExit(t *testing.T) {
	image := fstest.NewFileImage(t)
	d, err := disk.OpenFileDisk(image)
	require.NoError(t, err)
	root, err := d.Read(21)
	require.NoError(t, err)
	for slot := 2; slot < 128; slot++ {
		copy(root[32*slot:], dir.DirEnt{Inum: 1, Name: "x"}.Encode())
	}
	require.NoError(t, d.Write(21, root))
	require.NoError(t, d.Close())

	r := run(t, image, "create", "a")
	assert.Equal(t, exitDirFull, r.code)
}

func TestNoFreeInodeExit(t *testing.T) {
	image := fstest.NewFileImage(t)
	d, err := disk.OpenFileDisk(image)
	require.NoError(t, err)
	bitmap := make(disk.Block, disk.BlockSize)
	for i := range bitmap {
		bitmap[i] = 0xff
	}
	require.NoError(t, d.Write(17, bitmap))
	require.NoError(t, d.Close())

	r := run(t, image, "create", "a")
	assert.Equal(t, exitNoInode, r.code)
}

func TestUsageExit(t *testing.T) {
	image := fstest.NewFileImage(t)
	for _, args := range [][]string{
		{},
		{"create"},
		{"create", "a", "b"},
		{"create", ""},
		{"install", "now"},
		{"status", "now"},
		{"frobnicate"},
		{"--no-such-flag", "install"},
	} {
		r := run(t, image, args...)
		assert.Equal(t, exitUsage, r.code, "%v", args)
	}
}

func TestMissingImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.img")
	r := run(t, path, "install")
	assert.Equal(t, exitFailure, r.code)
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "image is not created")
}

func TestStatus(t *testing.T) {
	assert := assert.New(t)
	image := fstest.NewFileImage(t)
	require.Equal(t, 0, run(t, image, "create", "a").code)

	r := run(t, image, "--stats", "status")
	assert.Equal(0, r.code)
	assert.Contains(r.stdout, "journal bytes")
	assert.Contains(r.stdout, "12316")
	assert.Contains(r.stdout, "committed transactions: 1")
	assert.Contains(r.stderr, "disk.Read")
}

func TestLayoutFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bogus: 1\n"), 0644))
	image := fstest.NewFileImage(t)
	r := run(t, image, "--layout", path, "install")
	assert.Equal(t, exitFailure, r.code)
}
