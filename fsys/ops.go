package fsys

import (
	"syscall"
	"time"

	"github.com/nmoore/fs5600/block"
	"github.com/nmoore/fs5600/dirent"
	fserrors "github.com/nmoore/fs5600/errors"
	"github.com/nmoore/fs5600/inode"
)

func now() uint32 {
	return uint32(time.Now().Unix())
}

func (fs *FileSystem) loadDir(inum uint32) (*inode.Inode, *fserrors.DriverError) {
	n, err := fs.LoadInode(inum)
	if err != nil {
		return nil, err
	}
	if !n.IsDir() {
		return nil, fserrors.New(syscall.ENOTDIR)
	}
	return n, nil
}

func (fs *FileSystem) persistInode(inum uint32, n *inode.Inode) *fserrors.DriverError {
	return fs.inodes.WriteInode(inum, n)
}

// Getattr resolves path and returns a stat view of the inode it names.
func (fs *FileSystem) Getattr(path string) (FileStat, *fserrors.DriverError) {
	inum, err := fs.paths.Resolve(path)
	if err != nil {
		return FileStat{}, err
	}
	n, err := fs.LoadInode(inum)
	if err != nil {
		return FileStat{}, err
	}
	return statFromInode(inum, n), nil
}

// Readdir resolves path, which must be a directory, and feeds "." and ".."
// followed by every valid entry to filler until it is exhausted or filler
// reports itself full.
func (fs *FileSystem) Readdir(path string, filler Filler) *fserrors.DriverError {
	inum, err := fs.paths.Resolve(path)
	if err != nil {
		return err
	}
	dir, err := fs.loadDir(inum)
	if err != nil {
		return err
	}

	selfStat := statFromInode(inum, dir)
	if filler(".", selfStat) {
		return fserrors.New(syscall.ENOMEM)
	}
	if filler("..", selfStat) {
		return fserrors.New(syscall.ENOMEM)
	}

	entries, err := fs.dirs.Iterate(dir)
	if err != nil {
		return err
	}
	for _, ent := range entries {
		child, err := fs.LoadInode(ent.Inum)
		if err != nil {
			return err
		}
		if filler(ent.Name, statFromInode(ent.Inum, child)) {
			return fserrors.New(syscall.ENOMEM)
		}
	}
	return nil
}

func (fs *FileSystem) createChild(caller Caller, path string, mode uint32) (uint32, *inode.Inode, string, *inode.Inode, uint32, *fserrors.DriverError) {
	parentInum, leaf, err := fs.paths.ResolveParent(path)
	if err != nil {
		return 0, nil, "", nil, 0, err
	}
	parent, err := fs.loadDir(parentInum)
	if err != nil {
		return 0, nil, "", nil, 0, err
	}

	if _, findErr := fs.dirs.Find(parent, leaf); findErr == nil {
		return 0, nil, "", nil, 0, fserrors.New(syscall.EEXIST)
	} else if findErr.Errno() != syscall.ENOENT {
		return 0, nil, "", nil, 0, findErr
	}

	childInum, err := fs.alloc.Allocate()
	if err != nil {
		return 0, nil, "", nil, 0, err
	}

	t := now()
	child := &inode.Inode{
		UID:   caller.UID,
		GID:   caller.GID,
		Mode:  mode,
		CTime: t,
		MTime: t,
	}
	return parentInum, parent, leaf, child, childInum, nil
}

// Create allocates a new regular file named by path's leaf component inside
// its parent directory.
func (fs *FileSystem) Create(caller Caller, path string, mode uint32) (uint32, *fserrors.DriverError) {
	parentInum, parent, leaf, child, childInum, err := fs.createChild(caller, path, mode|syscall.S_IFREG)
	if err != nil {
		return 0, err
	}

	if err := fs.persistInode(childInum, child); err != nil {
		fs.alloc.Free(childInum)
		return 0, err
	}

	if err := fs.dirs.Add(parent, leaf, childInum); err != nil {
		fs.alloc.Free(childInum)
		return 0, err
	}

	// Late-stage parent write failure leaks the inode block just written:
	// the directory entry may already be on disk pointing at it, or the
	// in-memory parent.Size/Ptrs update may simply never reach the device.
	// This mirrors the documented limitation in spec.md's create/mkdir
	// description rather than attempting a rollback here.
	if err := fs.persistInode(parentInum, parent); err != nil {
		return 0, err
	}

	return childInum, nil
}

// Mkdir allocates a new directory named by path's leaf component inside its
// parent directory. No directory data block is allocated until the first
// child is inserted into it.
func (fs *FileSystem) Mkdir(caller Caller, path string, mode uint32) (uint32, *fserrors.DriverError) {
	dirMode := syscall.S_IFDIR | (mode & uint32(0777))
	parentInum, parent, leaf, child, childInum, err := fs.createChild(caller, path, dirMode)
	if err != nil {
		return 0, err
	}
	child.Size = block.BlockSize

	if err := fs.persistInode(childInum, child); err != nil {
		fs.alloc.Free(childInum)
		return 0, err
	}

	if err := fs.dirs.Add(parent, leaf, childInum); err != nil {
		fs.alloc.Free(childInum)
		return 0, err
	}

	if err := fs.persistInode(parentInum, parent); err != nil {
		return 0, err
	}

	return childInum, nil
}

// Unlink removes a regular file's entry from its parent directory and frees
// the blocks it owned.
func (fs *FileSystem) Unlink(path string) *fserrors.DriverError {
	parentInum, leaf, err := fs.paths.ResolveParent(path)
	if err != nil {
		return err
	}
	parent, err := fs.loadDir(parentInum)
	if err != nil {
		return err
	}

	childInum, err := fs.dirs.Find(parent, leaf)
	if err != nil {
		return err
	}
	child, err := fs.LoadInode(childInum)
	if err != nil {
		return err
	}
	if child.IsDir() {
		return fserrors.New(syscall.EISDIR)
	}

	if err := fs.dirs.Remove(parent, leaf); err != nil {
		return err
	}

	for _, ptr := range dirent.Blocks(child) {
		fs.alloc.Free(ptr)
	}
	fs.alloc.Free(childInum)

	parent.MTime = now()
	return fs.persistInode(parentInum, parent)
}

// Rmdir removes an empty directory's entry from its parent directory.
func (fs *FileSystem) Rmdir(path string) *fserrors.DriverError {
	parentInum, leaf, err := fs.paths.ResolveParent(path)
	if err != nil {
		return err
	}
	parent, err := fs.loadDir(parentInum)
	if err != nil {
		return err
	}

	childInum, err := fs.dirs.Find(parent, leaf)
	if err != nil {
		return err
	}
	child, err := fs.loadDir(childInum)
	if err != nil {
		return err
	}

	empty, err := fs.dirs.IsEmpty(child)
	if err != nil {
		return err
	}
	if !empty {
		return fserrors.New(syscall.ENOTEMPTY)
	}

	if err := fs.dirs.Remove(parent, leaf); err != nil {
		return err
	}

	for _, ptr := range dirent.Blocks(child) {
		fs.alloc.Free(ptr)
	}
	fs.alloc.Free(childInum)

	parent.MTime = now()
	return fs.persistInode(parentInum, parent)
}

// Rename renames oldPath to newPath. Both must resolve to the same parent
// directory; renaming across directories is not supported.
func (fs *FileSystem) Rename(oldPath, newPath string) *fserrors.DriverError {
	oldParentInum, oldLeaf, err := fs.paths.ResolveParent(oldPath)
	if err != nil {
		return err
	}
	newParentInum, newLeaf, err := fs.paths.ResolveParent(newPath)
	if err != nil {
		return err
	}
	if oldParentInum != newParentInum {
		return fserrors.New(syscall.EINVAL)
	}

	parent, err := fs.loadDir(oldParentInum)
	if err != nil {
		return err
	}

	// Destination-exists is checked before the source lookup: one of two
	// orders spec.md leaves unspecified, picked here to match
	// original_source/homework.c's rename implementation.
	if _, findErr := fs.dirs.Find(parent, newLeaf); findErr == nil {
		return fserrors.New(syscall.EEXIST)
	} else if findErr.Errno() != syscall.ENOENT {
		return findErr
	}

	if err := fs.dirs.Rename(parent, oldLeaf, newLeaf); err != nil {
		return err
	}

	parent.MTime = now()
	return fs.persistInode(oldParentInum, parent)
}

// Chmod replaces the permission bits of the inode at path, leaving its type
// bits untouched.
func (fs *FileSystem) Chmod(path string, newMode uint32) *fserrors.DriverError {
	inum, err := fs.paths.Resolve(path)
	if err != nil {
		return err
	}
	n, err := fs.LoadInode(inum)
	if err != nil {
		return err
	}

	n.Mode = (n.Mode & uint32(syscall.S_IFMT)) | (newMode & uint32(0777))
	n.CTime = now()
	return fs.persistInode(inum, n)
}

// Utime sets the inode's mtime/ctime at path. If modTime is nil, the
// current time is used, matching a null times argument.
func (fs *FileSystem) Utime(path string, modTime *time.Time) *fserrors.DriverError {
	inum, err := fs.paths.Resolve(path)
	if err != nil {
		return err
	}
	n, err := fs.LoadInode(inum)
	if err != nil {
		return err
	}

	var t uint32
	if modTime != nil {
		t = uint32(modTime.Unix())
	} else {
		t = now()
	}
	n.MTime = t
	n.CTime = t
	return fs.persistInode(inum, n)
}

// Truncate supports only truncation to length 0, per the on-disk format's
// lack of sparse file support.
func (fs *FileSystem) Truncate(path string, length uint32) *fserrors.DriverError {
	if length != 0 {
		return fserrors.New(syscall.EINVAL)
	}

	inum, err := fs.paths.Resolve(path)
	if err != nil {
		return err
	}
	n, err := fs.LoadInode(inum)
	if err != nil {
		return err
	}
	if n.IsDir() {
		return fserrors.New(syscall.EISDIR)
	}

	for _, ptr := range dirent.Blocks(n) {
		fs.alloc.Free(ptr)
	}
	n.Ptrs = [inode.NumDirect]uint32{}
	n.Size = 0
	t := now()
	n.MTime = t
	n.CTime = t
	return fs.persistInode(inum, n)
}

// Read fills buf starting at offset and returns how many bytes were copied.
func (fs *FileSystem) Read(path string, offset uint32, buf []byte) (int, *fserrors.DriverError) {
	inum, err := fs.paths.Resolve(path)
	if err != nil {
		return 0, err
	}
	n, err := fs.LoadInode(inum)
	if err != nil {
		return 0, err
	}
	if n.IsDir() {
		return 0, fserrors.New(syscall.EISDIR)
	}

	if offset >= n.Size {
		return 0, nil
	}

	want := len(buf)
	available := int(n.Size - offset)
	if want > available {
		want = available
	}

	read := 0
	for read < want {
		blockIdx := (offset + uint32(read)) / block.BlockSize
		blockOff := (offset + uint32(read)) % block.BlockSize
		if int(blockIdx) >= len(n.Ptrs) || n.Ptrs[blockIdx] == 0 {
			break
		}

		data, err := fs.dev.ReadBlock(n.Ptrs[blockIdx])
		if err != nil {
			return read, err
		}

		chunk := block.BlockSize - int(blockOff)
		if remaining := want - read; chunk > remaining {
			chunk = remaining
		}
		copy(buf[read:read+chunk], data[blockOff:int(blockOff)+chunk])
		read += chunk
	}

	return read, nil
}

// Write overwrites buf's contents starting at offset, extending the file
// and allocating blocks as necessary. Holes are not supported: offset must
// not exceed the current size.
func (fs *FileSystem) Write(path string, offset uint32, buf []byte) (int, *fserrors.DriverError) {
	inum, err := fs.paths.Resolve(path)
	if err != nil {
		return 0, err
	}
	n, err := fs.LoadInode(inum)
	if err != nil {
		return 0, err
	}
	if n.IsDir() {
		return 0, fserrors.New(syscall.EISDIR)
	}

	// ENOSPC is checked before the hole check (offset > size) so that a
	// write landing past the last direct block reports capacity exhaustion
	// even starting from a fresh, size-0 file, matching spec.md §8 S6.
	end := offset + uint32(len(buf))
	lastBlock := (end + block.BlockSize - 1) / block.BlockSize
	if lastBlock > inode.NumDirect {
		return 0, fserrors.New(syscall.ENOSPC)
	}
	if offset > n.Size {
		return 0, fserrors.New(syscall.EINVAL)
	}

	firstBlock := offset / block.BlockSize
	for i := firstBlock; i < lastBlock; i++ {
		if n.Ptrs[i] != 0 {
			continue
		}
		blockNum, err := fs.alloc.Allocate()
		if err != nil {
			return 0, err
		}
		if err := fs.dev.WriteBlock(blockNum, make([]byte, block.BlockSize)); err != nil {
			fs.alloc.Free(blockNum)
			return 0, err
		}
		n.Ptrs[i] = blockNum
	}

	written := 0
	for written < len(buf) {
		blockIdx := (offset + uint32(written)) / block.BlockSize
		blockOff := (offset + uint32(written)) % block.BlockSize

		data, err := fs.dev.ReadBlock(n.Ptrs[blockIdx])
		if err != nil {
			return written, err
		}

		chunk := block.BlockSize - int(blockOff)
		if remaining := len(buf) - written; chunk > remaining {
			chunk = remaining
		}
		copy(data[blockOff:int(blockOff)+chunk], buf[written:written+chunk])

		if err := fs.dev.WriteBlock(n.Ptrs[blockIdx], data); err != nil {
			return written, err
		}
		written += chunk
	}

	if end > n.Size {
		n.Size = end
	}
	t := now()
	n.MTime = t
	n.CTime = t
	if err := fs.persistInode(inum, n); err != nil {
		return written, err
	}

	return written, nil
}

// Statfs reports aggregate block usage for the mounted image.
func (fs *FileSystem) Statfs() FSStat {
	total := fs.dev.TotalBlocks()
	free := total - fs.alloc.PopCount()
	return FSStat{
		BlockSize:       block.BlockSize,
		TotalBlocks:     total,
		BlocksFree:      free,
		BlocksAvailable: free,
		MaxNameLength:   27,
	}
}
