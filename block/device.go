// Package block wraps the host's raw block I/O primitives and validates
// block numbers against the image's declared size, per the block device
// adapter component of the fs5600 design.
package block

import (
	"syscall"

	fserrors "github.com/nmoore/fs5600/errors"
)

// BlockSize is the fixed size, in bytes, of every block on an fs5600 image.
const BlockSize = 4096

// Primitives is the contract the host provides: synchronous, all-or-nothing
// multi-block I/O. Both methods must either transfer exactly nblks*BlockSize
// bytes or return a non-nil error; there is no partial-transfer case.
type Primitives interface {
	BlockRead(buf []byte, lba, nblks int) error
	BlockWrite(buf []byte, lba, nblks int) error
}

// Device adapts a Primitives implementation into the single-block
// ReadBlock/WriteBlock interface the rest of fs5600 uses, adding the bounds
// validation the spec assigns to this layer.
type Device struct {
	raw         Primitives
	totalBlocks uint32
}

// NewDevice wraps raw with bounds checking against totalBlocks.
func NewDevice(raw Primitives, totalBlocks uint32) *Device {
	return &Device{raw: raw, totalBlocks: totalBlocks}
}

// TotalBlocks returns the number of addressable blocks on the image.
func (d *Device) TotalBlocks() uint32 {
	return d.totalBlocks
}

func (d *Device) checkBounds(lba uint32) *fserrors.DriverError {
	if lba >= d.totalBlocks {
		return fserrors.Newf(
			syscall.EINVAL,
			"block %d out of range [0, %d)",
			lba,
			d.totalBlocks,
		)
	}
	return nil
}

// ReadBlock fills a fresh BlockSize-byte buffer from lba.
func (d *Device) ReadBlock(lba uint32) ([]byte, *fserrors.DriverError) {
	if err := d.checkBounds(lba); err != nil {
		return nil, err
	}

	buf := make([]byte, BlockSize)
	if err := d.raw.BlockRead(buf, int(lba), 1); err != nil {
		return nil, fserrors.Wrap(syscall.EIO, err)
	}
	return buf, nil
}

// WriteBlock writes exactly BlockSize bytes of data to lba.
func (d *Device) WriteBlock(lba uint32, data []byte) *fserrors.DriverError {
	if err := d.checkBounds(lba); err != nil {
		return err
	}
	if len(data) != BlockSize {
		return fserrors.Newf(
			syscall.EINVAL,
			"write to block %d must be exactly %d bytes, got %d",
			lba,
			BlockSize,
			len(data),
		)
	}

	if err := d.raw.BlockWrite(data, int(lba), 1); err != nil {
		return fserrors.Wrap(syscall.EIO, err)
	}
	return nil
}
