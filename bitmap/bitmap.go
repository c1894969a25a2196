// Package bitmap implements the free-block allocator backing block 1 of an
// fs5600 image: a 4096-byte bit array where bit i set means block i is in
// use, allocated first-fit ascending starting at block 3.
package bitmap

import (
	"syscall"

	bm "github.com/boljen/go-bitmap"

	fserrors "github.com/nmoore/fs5600/errors"
)

// FirstAllocatableBlock is the first block number Allocate() will consider;
// blocks 0 (superblock), 1 (bitmap), and 2 (root inode) are permanently
// reserved.
const FirstAllocatableBlock = 3

// FlushFunc persists the bitmap's current byte representation. It is called
// after every mutation so the image is never left with a dirty in-memory
// bitmap, matching the spec's "no deferred flush" rule.
type FlushFunc func(data []byte) error

// Allocator tracks which blocks on an image are in use.
type Allocator struct {
	bits  bm.Bitmap
	total uint32
	flush FlushFunc
}

// New creates an Allocator for an image with totalBlocks blocks. Blocks 0,
// 1, and 2 are marked used unconditionally.
func New(totalBlocks uint32, flush FlushFunc) *Allocator {
	a := &Allocator{
		bits:  bm.NewSlice(int(totalBlocks)),
		total: totalBlocks,
		flush: flush,
	}
	a.bits.Set(0, true)
	a.bits.Set(1, true)
	a.bits.Set(2, true)
	return a
}

// FromBytes reconstructs an Allocator from a previously persisted bitmap
// block, forcing bits 0, 1, and 2 to be set regardless of what was on disk
// (idempotent repair, per the mount algorithm in spec.md §9).
func FromBytes(data []byte, totalBlocks uint32, flush FlushFunc) *Allocator {
	raw := make([]byte, len(data))
	copy(raw, data)

	a := &Allocator{
		bits:  bm.Bitmap(raw),
		total: totalBlocks,
		flush: flush,
	}
	a.bits.Set(0, true)
	a.bits.Set(1, true)
	a.bits.Set(2, true)
	return a
}

// Bytes returns the bitmap's current on-disk representation.
func (a *Allocator) Bytes() []byte {
	return a.bits.Data(false)
}

func (a *Allocator) persist() *fserrors.DriverError {
	if a.flush == nil {
		return nil
	}
	if err := a.flush(a.Bytes()); err != nil {
		return fserrors.Wrap(syscall.EIO, err)
	}
	return nil
}

// IsSet reports whether block is currently allocated.
func (a *Allocator) IsSet(block uint32) bool {
	if block >= a.total {
		return false
	}
	return a.bits.Get(int(block))
}

// Allocate finds the first free block at or after FirstAllocatableBlock,
// marks it used, persists the bitmap, and returns its number.
func (a *Allocator) Allocate() (uint32, *fserrors.DriverError) {
	for i := uint32(FirstAllocatableBlock); i < a.total; i++ {
		if !a.bits.Get(int(i)) {
			a.bits.Set(int(i), true)
			if err := a.persist(); err != nil {
				a.bits.Set(int(i), false)
				return 0, err
			}
			return i, nil
		}
	}
	return 0, fserrors.New(syscall.ENOSPC)
}

// Free clears block's bit and persists the bitmap. Freeing an already-free
// block, or a block in [0, FirstAllocatableBlock), is a no-op success.
func (a *Allocator) Free(block uint32) *fserrors.DriverError {
	if block >= a.total {
		return fserrors.Newf(
			syscall.EINVAL,
			"block %d out of range [0, %d)",
			block,
			a.total,
		)
	}
	if block < FirstAllocatableBlock {
		return nil
	}
	if !a.bits.Get(int(block)) {
		return nil
	}

	a.bits.Set(int(block), false)
	return a.persist()
}

// PopCount returns the number of set bits among the first totalBlocks bits,
// i.e. the number of blocks currently in use.
func (a *Allocator) PopCount() uint32 {
	var n uint32
	for i := uint32(0); i < a.total; i++ {
		if a.bits.Get(int(i)) {
			n++
		}
	}
	return n
}

// TotalBlocks returns the number of blocks this allocator was sized for.
func (a *Allocator) TotalBlocks() uint32 {
	return a.total
}
