package fsys

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/nmoore/fs5600/inode"
)

// Check walks the mounted filesystem from its root and reports every
// consistency violation it finds, instead of stopping at the first one. It
// checks spec.md's invariants: every block the bitmap marks used is
// reachable from root, no block is referenced by more than one inode, and
// the root inode is always a directory.
func Check(fs *FileSystem) error {
	var result *multierror.Error

	if !fs.rootNode.IsDir() {
		result = multierror.Append(result, fmt.Errorf("root inode (block %d) is not a directory", RootInum))
	}

	reachable := map[uint32]bool{0: true, 1: true, 2: true}
	referencedBy := map[uint32]uint32{}

	var walk func(dirInum uint32, dir *inode.Inode)
	walk = func(dirInum uint32, dir *inode.Inode) {
		reachable[dirInum] = true
		for _, ptr := range dir.Ptrs {
			if ptr == 0 {
				continue
			}
			result = markReferenced(result, referencedBy, ptr, dirInum)
			reachable[ptr] = true
		}

		entries, err := fs.dirs.Iterate(dir)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("directory at inode %d: %s", dirInum, err.Error()))
			return
		}

		for _, ent := range entries {
			result = markReferenced(result, referencedBy, ent.Inum, dirInum)
			reachable[ent.Inum] = true

			child, err := fs.inodes.ReadInode(ent.Inum)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("entry %q in inode %d points at unreadable inode %d: %s", ent.Name, dirInum, ent.Inum, err.Error()))
				continue
			}
			for _, ptr := range child.Ptrs {
				if ptr == 0 {
					continue
				}
				result = markReferenced(result, referencedBy, ptr, ent.Inum)
				reachable[ptr] = true
			}
			if child.IsDir() {
				walk(ent.Inum, child)
			}
		}
	}
	walk(RootInum, fs.rootNode)

	for i := uint32(0); i < fs.dev.TotalBlocks(); i++ {
		used := fs.alloc.IsSet(i)
		ref := reachable[i]
		switch {
		case used && !ref:
			result = multierror.Append(result, fmt.Errorf("block %d is marked used in the bitmap but is not reachable from root", i))
		case !used && ref:
			result = multierror.Append(result, fmt.Errorf("block %d is reachable from root but not marked used in the bitmap", i))
		}
	}

	return result.ErrorOrNil()
}

func markReferenced(result *multierror.Error, referencedBy map[uint32]uint32, block, owner uint32) *multierror.Error {
	if prior, ok := referencedBy[block]; ok && prior != owner {
		return multierror.Append(result, fmt.Errorf("block %d is referenced by both inode %d and inode %d", block, prior, owner))
	}
	referencedBy[block] = owner
	return result
}
