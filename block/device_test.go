package block_test

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nmoore/fs5600/block"
	fstesting "github.com/nmoore/fs5600/testing"
)

func newTestDevice(t *testing.T, totalBlocks uint32) *block.Device {
	t.Helper()
	return fstesting.NewBlankImage(t, totalBlocks)
}

func TestReadWriteRoundTrip(t *testing.T) {
	dev := newTestDevice(t, 8)

	payload := make([]byte, block.BlockSize)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	require.Nil(t, dev.WriteBlock(3, payload))

	got, err := dev.ReadBlock(3)
	require.Nil(t, err)
	assert.Equal(t, payload, got)
}

func TestReadBlockOutOfRange(t *testing.T) {
	dev := newTestDevice(t, 4)

	_, err := dev.ReadBlock(4)
	require.NotNil(t, err)
	assert.Equal(t, syscall.EINVAL, err.Errno())
}

func TestWriteBlockOutOfRange(t *testing.T) {
	dev := newTestDevice(t, 4)

	err := dev.WriteBlock(100, make([]byte, block.BlockSize))
	require.NotNil(t, err)
	assert.Equal(t, syscall.EINVAL, err.Errno())
}

func TestWriteBlockWrongSize(t *testing.T) {
	dev := newTestDevice(t, 4)

	err := dev.WriteBlock(0, make([]byte, 10))
	require.NotNil(t, err)
	assert.Equal(t, syscall.EINVAL, err.Errno())
}

func TestTotalBlocks(t *testing.T) {
	dev := newTestDevice(t, 400)
	assert.EqualValues(t, 400, dev.TotalBlocks())
}
