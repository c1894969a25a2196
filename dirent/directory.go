package dirent

import (
	"syscall"

	"github.com/nmoore/fs5600/bitmap"
	"github.com/nmoore/fs5600/block"
	fserrors "github.com/nmoore/fs5600/errors"
	"github.com/nmoore/fs5600/inode"
)

// Engine finds, inserts, removes, and iterates directory entries against an
// in-memory inode record. Callers are responsible for persisting the inode
// itself (its Ptrs/Size fields) after a mutating call returns successfully,
// per the operation layer's "mutate; persist" pattern.
type Engine struct {
	dev   *block.Device
	alloc *bitmap.Allocator
}

// NewEngine creates a directory Engine backed by dev and alloc.
func NewEngine(dev *block.Device, alloc *bitmap.Allocator) *Engine {
	return &Engine{dev: dev, alloc: alloc}
}

// Find scans every allocated directory block of dir for an entry named name
// and returns its child inode number.
func (e *Engine) Find(dir *inode.Inode, name string) (uint32, *fserrors.DriverError) {
	if !dir.IsDir() {
		return 0, fserrors.New(syscall.ENOTDIR)
	}

	for _, ptr := range dir.Ptrs {
		if ptr == 0 {
			continue
		}
		data, err := e.dev.ReadBlock(ptr)
		if err != nil {
			return 0, err
		}
		for slot := 0; slot < EntriesPerBlock; slot++ {
			ent := decodeEntry(data, slot)
			if ent.Valid && ent.Name == name {
				return ent.Inum, nil
			}
		}
	}

	return 0, fserrors.New(syscall.ENOENT)
}

// Add inserts a new entry named name pointing at childInum into dir. The
// caller must ensure dir's updated Ptrs/Size are persisted afterward.
func (e *Engine) Add(dir *inode.Inode, name string, childInum uint32) *fserrors.DriverError {
	if !dir.IsDir() {
		return fserrors.New(syscall.ENOTDIR)
	}

	_, findErr := e.Find(dir, name)
	if findErr == nil {
		return fserrors.New(syscall.EEXIST)
	}
	if findErr.Errno() != syscall.ENOENT {
		return findErr
	}

	hasBlock := false
	for _, ptr := range dir.Ptrs {
		if ptr != 0 {
			hasBlock = true
			break
		}
	}

	if !hasBlock {
		blockNum, err := e.alloc.Allocate()
		if err != nil {
			return err
		}
		if err := e.dev.WriteBlock(blockNum, make([]byte, block.BlockSize)); err != nil {
			e.alloc.Free(blockNum)
			return err
		}
		dir.Ptrs[0] = blockNum
		dir.Size = block.BlockSize
	}

	for _, ptr := range dir.Ptrs {
		if ptr == 0 {
			continue
		}
		data, err := e.dev.ReadBlock(ptr)
		if err != nil {
			return err
		}
		for slot := 0; slot < EntriesPerBlock; slot++ {
			if decodeEntry(data, slot).Valid {
				continue
			}
			encodeEntry(data, slot, true, childInum, name)
			return e.dev.WriteBlock(ptr, data)
		}
	}

	for i, ptr := range dir.Ptrs {
		if ptr != 0 {
			continue
		}
		blockNum, err := e.alloc.Allocate()
		if err != nil {
			return err
		}
		data := make([]byte, block.BlockSize)
		encodeEntry(data, 0, true, childInum, name)
		if err := e.dev.WriteBlock(blockNum, data); err != nil {
			e.alloc.Free(blockNum)
			return err
		}
		dir.Ptrs[i] = blockNum
		newSize := uint32(i+1) * block.BlockSize
		if newSize > dir.Size {
			dir.Size = newSize
		}
		return nil
	}

	return fserrors.New(syscall.ENOSPC)
}

// Remove clears the valid flag of the entry named name. It does not compact
// the block and does not free it.
func (e *Engine) Remove(dir *inode.Inode, name string) *fserrors.DriverError {
	if !dir.IsDir() {
		return fserrors.New(syscall.ENOTDIR)
	}

	for _, ptr := range dir.Ptrs {
		if ptr == 0 {
			continue
		}
		data, err := e.dev.ReadBlock(ptr)
		if err != nil {
			return err
		}
		for slot := 0; slot < EntriesPerBlock; slot++ {
			ent := decodeEntry(data, slot)
			if ent.Valid && ent.Name == name {
				clearValid(data, slot)
				return e.dev.WriteBlock(ptr, data)
			}
		}
	}

	return fserrors.New(syscall.ENOENT)
}

// Rename rewrites the name of the entry currently called oldName to
// newName, in place, without changing the child inode number it refers to.
func (e *Engine) Rename(dir *inode.Inode, oldName, newName string) *fserrors.DriverError {
	if !dir.IsDir() {
		return fserrors.New(syscall.ENOTDIR)
	}

	for _, ptr := range dir.Ptrs {
		if ptr == 0 {
			continue
		}
		data, err := e.dev.ReadBlock(ptr)
		if err != nil {
			return err
		}
		for slot := 0; slot < EntriesPerBlock; slot++ {
			ent := decodeEntry(data, slot)
			if ent.Valid && ent.Name == oldName {
				encodeEntry(data, slot, true, ent.Inum, newName)
				return e.dev.WriteBlock(ptr, data)
			}
		}
	}

	return fserrors.New(syscall.ENOENT)
}

// IsEmpty reports whether dir contains no valid entries in any allocated
// block.
func (e *Engine) IsEmpty(dir *inode.Inode) (bool, *fserrors.DriverError) {
	if !dir.IsDir() {
		return false, fserrors.New(syscall.ENOTDIR)
	}

	for _, ptr := range dir.Ptrs {
		if ptr == 0 {
			continue
		}
		data, err := e.dev.ReadBlock(ptr)
		if err != nil {
			return false, err
		}
		for slot := 0; slot < EntriesPerBlock; slot++ {
			if decodeEntry(data, slot).Valid {
				return false, nil
			}
		}
	}

	return true, nil
}

// Iterate returns every valid entry in dir, in block-then-slot order.
func (e *Engine) Iterate(dir *inode.Inode) ([]Entry, *fserrors.DriverError) {
	if !dir.IsDir() {
		return nil, fserrors.New(syscall.ENOTDIR)
	}

	var entries []Entry
	for _, ptr := range dir.Ptrs {
		if ptr == 0 {
			continue
		}
		data, err := e.dev.ReadBlock(ptr)
		if err != nil {
			return nil, err
		}
		for slot := 0; slot < EntriesPerBlock; slot++ {
			ent := decodeEntry(data, slot)
			if ent.Valid {
				entries = append(entries, ent)
			}
		}
	}

	return entries, nil
}

// Blocks returns the non-zero direct pointers of dir, i.e. its allocated
// directory data blocks.
func Blocks(dir *inode.Inode) []uint32 {
	var out []uint32
	for _, ptr := range dir.Ptrs {
		if ptr != 0 {
			out = append(out, ptr)
		}
	}
	return out
}
