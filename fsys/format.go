package fsys

import (
	"encoding/binary"
	"syscall"
	"time"

	"github.com/noxer/bytewriter"

	"github.com/nmoore/fs5600/bitmap"
	"github.com/nmoore/fs5600/block"
	"github.com/nmoore/fs5600/dirent"
	fserrors "github.com/nmoore/fs5600/errors"
	"github.com/nmoore/fs5600/inode"
	"github.com/nmoore/fs5600/pathutil"
)

// magicNumber identifies a block 0 as an fs5600 superblock. The value is
// this implementation's own choice; the original coursework header does not
// define one, so any fixed 32-bit constant works as long as format and
// mount agree on it.
const magicNumber uint32 = 0xf5600001

// defaultRootMode is the root directory's mode at format time: directory
// type bit plus 0755 permissions.
const defaultRootMode = syscall.S_IFDIR | 0755

func superblockBlock(totalBlocks uint32) []byte {
	buf := make([]byte, block.BlockSize)
	w := bytewriter.New(buf)
	binary.Write(w, binary.LittleEndian, magicNumber)
	binary.Write(w, binary.LittleEndian, totalBlocks)
	return buf
}

func readSuperblock(data []byte) (magic, totalBlocks uint32) {
	magic = binary.LittleEndian.Uint32(data[0:4])
	totalBlocks = binary.LittleEndian.Uint32(data[4:8])
	return
}

func freshRootInode(now uint32) *inode.Inode {
	return &inode.Inode{
		UID:   0,
		GID:   0,
		Mode:  defaultRootMode,
		CTime: now,
		MTime: now,
		Size:  block.BlockSize,
	}
}

func newFileSystem(dev *block.Device, alloc *bitmap.Allocator, root *inode.Inode) *FileSystem {
	store := inode.NewStore(dev)
	dirs := dirent.NewEngine(dev, alloc)
	fs := &FileSystem{
		dev:      dev,
		alloc:    alloc,
		inodes:   store,
		dirs:     dirs,
		rootNode: root,
	}
	fs.paths = pathutil.NewResolver(fs)
	return fs
}

// Format unconditionally initializes dev as a fresh, empty fs5600 image: a
// superblock, a bitmap with only the three reserved blocks set, and an
// empty root directory.
func Format(dev *block.Device) (*FileSystem, *fserrors.DriverError) {
	total := dev.TotalBlocks()

	if err := dev.WriteBlock(0, superblockBlock(total)); err != nil {
		return nil, err
	}

	root := freshRootInode(uint32(time.Now().Unix()))
	if err := dev.WriteBlock(RootInum, root.Marshal(block.BlockSize)); err != nil {
		return nil, err
	}

	alloc := bitmap.New(total, func(b []byte) error {
		return writeBitmapBlock(dev, b)
	})
	if err := writeBitmapBlock(dev, alloc.Bytes()); err != nil {
		return nil, fserrors.Wrap(syscall.EIO, err)
	}

	return newFileSystem(dev, alloc, root), nil
}

func writeBitmapBlock(dev *block.Device, data []byte) error {
	buf := make([]byte, block.BlockSize)
	copy(buf, data)
	if err := dev.WriteBlock(1, buf); err != nil {
		return err
	}
	return nil
}

// Mount reads dev's existing superblock, bitmap, and root inode. If the
// magic number does not match or the root inode is not a directory, it
// falls through to Format, matching spec.md's mount/format algorithm.
func Mount(dev *block.Device) (*FileSystem, *fserrors.DriverError) {
	sbBlock, err := dev.ReadBlock(0)
	if err != nil {
		return nil, err
	}

	magic, total := readSuperblock(sbBlock)
	if magic != magicNumber || total != dev.TotalBlocks() {
		return Format(dev)
	}

	rootData, err := dev.ReadBlock(RootInum)
	if err != nil {
		return nil, err
	}
	root, uerr := inode.Unmarshal(rootData)
	if uerr != nil {
		return Format(dev)
	}
	if !root.IsDir() {
		return Format(dev)
	}

	bitmapData, err := dev.ReadBlock(1)
	if err != nil {
		return nil, err
	}
	alloc := bitmap.FromBytes(bitmapData, dev.TotalBlocks(), func(b []byte) error {
		return writeBitmapBlock(dev, b)
	})
	// Bit 0/1/2 repair performed by FromBytes may have changed the bitmap
	// relative to what's on disk; persist it back so a half-formatted
	// image never lingers after a successful mount.
	if err := writeBitmapBlock(dev, alloc.Bytes()); err != nil {
		return nil, fserrors.Wrap(syscall.EIO, err)
	}

	return newFileSystem(dev, alloc, root), nil
}
