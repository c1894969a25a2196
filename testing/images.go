// Package testing centralizes the in-memory image construction every other
// package's tests use, the same role the teacher codebase's own testing
// helper package plays.
package testing

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"

	"github.com/nmoore/fs5600/block"
	"github.com/nmoore/fs5600/fsys"
)

// NewBlankImage allocates totalBlocks zero-filled blocks and wraps them in a
// block.Device, with no format or mount performed.
func NewBlankImage(t *testing.T, totalBlocks uint32) *block.Device {
	t.Helper()
	data := make([]byte, int(totalBlocks)*block.BlockSize)
	stream := bytesextra.NewReadWriteSeeker(data)
	return block.NewDevice(block.NewStreamPrimitives(stream), totalBlocks)
}

// NewRandomImage is like NewBlankImage but fills the backing bytes with
// random data first, for exercising code paths that must not assume a
// pristine image (e.g. mount's fallback-to-format behavior).
func NewRandomImage(t *testing.T, totalBlocks uint32) *block.Device {
	t.Helper()
	data := make([]byte, int(totalBlocks)*block.BlockSize)
	_, err := rand.Read(data)
	require.NoError(t, err)

	stream := bytesextra.NewReadWriteSeeker(data)
	return block.NewDevice(block.NewStreamPrimitives(stream), totalBlocks)
}

// NewFormattedFileSystem builds a totalBlocks-block image and formats it,
// failing the test immediately if formatting fails.
func NewFormattedFileSystem(t *testing.T, totalBlocks uint32) *fsys.FileSystem {
	t.Helper()
	dev := NewBlankImage(t, totalBlocks)
	fs, err := fsys.Format(dev)
	require.Nil(t, err)
	return fs
}
