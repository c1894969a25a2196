package fsys_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoore/fs5600/fsys"
	fstesting "github.com/nmoore/fs5600/testing"
)

// S1: getattr("/") reports a directory of exactly one block.
func TestFormatRootIsDirectoryOfOneBlock(t *testing.T) {
	fs := newTestFS(t)

	stat, err := fs.Getattr("/")
	require.Nil(t, err)
	assert.EqualValues(t, fsys.RootInum, stat.InodeNumber)
	assert.EqualValues(t, syscall.S_IFDIR, stat.ModeFlags&syscall.S_IFMT)
	assert.EqualValues(t, 4096, stat.Size)
}

// Mount on an image with no superblock magic falls through to Format,
// matching spec.md's mount/format algorithm.
func TestMountFormatsGarbageImage(t *testing.T) {
	dev := fstesting.NewRandomImage(t, testTotalBlocks)

	fs, err := fsys.Mount(dev)
	require.Nil(t, err)

	stat, statErr := fs.Getattr("/")
	require.Nil(t, statErr)
	assert.EqualValues(t, 4096, stat.Size)

	entries := collectEntries(t, fs, "/")
	assert.ElementsMatch(t, []string{".", ".."}, entries)
}

// Mount on a blank (all-zero) image also falls through to Format: the magic
// number is never all-zero.
func TestMountFormatsBlankImage(t *testing.T) {
	dev := fstesting.NewBlankImage(t, testTotalBlocks)

	fs, err := fsys.Mount(dev)
	require.Nil(t, err)

	stat, statErr := fs.Getattr("/")
	require.Nil(t, statErr)
	assert.EqualValues(t, syscall.S_IFDIR, stat.ModeFlags&syscall.S_IFMT)
}

// Mount of a previously formatted image round-trips the files it contains.
func TestMountRoundTripsFormattedImage(t *testing.T) {
	dev := fstesting.NewBlankImage(t, testTotalBlocks)
	fs, err := fsys.Format(dev)
	require.Nil(t, err)

	_, err = fs.Create(testCaller, "/a", 0644)
	require.Nil(t, err)
	n, writeErr := fs.Write("/a", 0, []byte("HELLO"))
	require.Nil(t, writeErr)
	assert.Equal(t, 5, n)

	remounted, mountErr := fsys.Mount(dev)
	require.Nil(t, mountErr)

	stat, statErr := remounted.Getattr("/a")
	require.Nil(t, statErr)
	assert.EqualValues(t, 5, stat.Size)

	buf := make([]byte, 5)
	readN, readErr := remounted.Read("/a", 0, buf)
	require.Nil(t, readErr)
	assert.Equal(t, 5, readN)
	assert.Equal(t, "HELLO", string(buf[:readN]))
}

func collectEntries(t *testing.T, fs *fsys.FileSystem, path string) []string {
	t.Helper()
	var names []string
	err := fs.Readdir(path, func(name string, _ fsys.FileStat) bool {
		names = append(names, name)
		return false
	})
	require.Nil(t, err)
	return names
}
