// Package fsys implements the externally visible filesystem operations and
// the mount/format lifecycle described by the fs5600 on-disk format.
package fsys

import (
	"github.com/nmoore/fs5600/bitmap"
	"github.com/nmoore/fs5600/block"
	"github.com/nmoore/fs5600/dirent"
	fserrors "github.com/nmoore/fs5600/errors"
	"github.com/nmoore/fs5600/inode"
	"github.com/nmoore/fs5600/pathutil"
)

// RootInum is the fixed inode number of the root directory.
const RootInum = pathutil.RootInum

// FileSystem is the in-core handle every operation is a method of. It owns
// the block device, the free-block allocator, the inode store, the
// directory engine, and the path resolver, mirroring the "single filesystem
// handle" strategy spec.md's design notes recommend for serial execution.
type FileSystem struct {
	dev      *block.Device
	alloc    *bitmap.Allocator
	inodes   *inode.Store
	dirs     *dirent.Engine
	paths    *pathutil.Resolver
	rootNode *inode.Inode
}

// Caller identifies the user/group requesting an operation, the
// host-framework-agnostic stand-in for a FUSE request context.
type Caller struct {
	UID uint32
	GID uint32
}

// FileStat mirrors the subset of POSIX stat(2) fields this format can
// populate; Nlinks is always 1 since hard links are not supported.
type FileStat struct {
	InodeNumber  uint32
	ModeFlags    uint32
	UID          uint32
	GID          uint32
	Size         uint32
	Nlinks       uint32
	LastAccessed uint32
	LastModified uint32
	LastChanged  uint32
}

// FSStat mirrors the subset of POSIX statvfs(2) fields this format can
// populate.
type FSStat struct {
	BlockSize       uint32
	TotalBlocks     uint32
	BlocksFree      uint32
	BlocksAvailable uint32
	MaxNameLength   uint32
}

// Filler receives one directory entry at a time during Readdir, the
// in-process analogue of the outer framework's fill-dir callback. It
// returns true once it can accept no more entries.
type Filler func(name string, stat FileStat) (full bool)

func statFromInode(inum uint32, n *inode.Inode) FileStat {
	return FileStat{
		InodeNumber:  inum,
		ModeFlags:    n.Mode,
		UID:          n.UID,
		GID:          n.GID,
		Size:         n.Size,
		Nlinks:       1,
		LastAccessed: n.MTime,
		LastModified: n.MTime,
		LastChanged:  n.CTime,
	}
}

// LoadInode implements pathutil.Lookup.
func (fs *FileSystem) LoadInode(inum uint32) (*inode.Inode, *fserrors.DriverError) {
	if inum == RootInum {
		return fs.rootNode, nil
	}
	return fs.inodes.ReadInode(inum)
}

// FindChild implements pathutil.Lookup.
func (fs *FileSystem) FindChild(dir *inode.Inode, name string) (uint32, *fserrors.DriverError) {
	return fs.dirs.Find(dir, name)
}
