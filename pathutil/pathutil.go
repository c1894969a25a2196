// Package pathutil resolves slash-separated paths into inode numbers by
// walking the directory tree one component at a time, per the path
// resolution rules in fs5600's design: a fixed maximum depth, silent
// per-component truncation, and a root fast path.
package pathutil

import (
	"strings"
	"syscall"

	fserrors "github.com/nmoore/fs5600/errors"
	"github.com/nmoore/fs5600/inode"
)

// MaxComponents is the deepest path this resolver will walk.
const MaxComponents = 10

// RootInum is the fixed inode number of the root directory.
const RootInum = 2

// MaxNameLen mirrors dirent.MaxNameLen; duplicated here so that pathutil does
// not import dirent.
const MaxNameLen = 27

// Lookup is the directory-lookup contract the Resolver needs: find a named
// child within dir, and load an inode by number. fsys.FileSystem satisfies
// this by pairing its dirent.Engine with its inode.Store.
type Lookup interface {
	FindChild(dir *inode.Inode, name string) (uint32, *fserrors.DriverError)
	LoadInode(inum uint32) (*inode.Inode, *fserrors.DriverError)
}

// Resolver walks paths against a Lookup.
type Resolver struct {
	lookup Lookup
}

// NewResolver creates a Resolver backed by lookup.
func NewResolver(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

func splitPath(path string) []string {
	trimmed := strings.TrimPrefix(path, "/")
	if trimmed == "" {
		return nil
	}

	raw := strings.Split(trimmed, "/")
	components := make([]string, 0, len(raw))
	for _, c := range raw {
		if c == "" {
			continue
		}
		if len(c) > MaxNameLen {
			c = c[:MaxNameLen]
		}
		components = append(components, c)
	}
	return components
}

// Resolve walks path from the root and returns the inode number it names.
// The root itself resolves to RootInum.
func (r *Resolver) Resolve(path string) (uint32, *fserrors.DriverError) {
	components := splitPath(path)
	if len(components) == 0 {
		return RootInum, nil
	}
	if len(components) > MaxComponents {
		return 0, fserrors.New(syscall.EINVAL)
	}

	current := uint32(RootInum)
	for i, name := range components {
		dir, err := r.lookup.LoadInode(current)
		if err != nil {
			return 0, err
		}
		child, err := r.lookup.FindChild(dir, name)
		if err != nil {
			return 0, err
		}
		if i < len(components)-1 {
			childNode, err := r.lookup.LoadInode(child)
			if err != nil {
				return 0, err
			}
			if !childNode.IsDir() {
				return 0, fserrors.New(syscall.ENOTDIR)
			}
		}
		current = child
	}
	return current, nil
}

// ResolveParent splits path into its parent directory's inode number and its
// final component. A path with zero components (the root itself) is
// rejected with EINVAL since the root has no parent.
func (r *Resolver) ResolveParent(path string) (uint32, string, *fserrors.DriverError) {
	components := splitPath(path)
	if len(components) == 0 {
		return 0, "", fserrors.New(syscall.EINVAL)
	}
	if len(components) > MaxComponents {
		return 0, "", fserrors.New(syscall.EINVAL)
	}

	leaf := components[len(components)-1]
	parentComponents := components[:len(components)-1]

	current := uint32(RootInum)
	for _, name := range parentComponents {
		dir, err := r.lookup.LoadInode(current)
		if err != nil {
			return 0, "", err
		}
		child, err := r.lookup.FindChild(dir, name)
		if err != nil {
			return 0, "", err
		}
		childNode, err := r.lookup.LoadInode(child)
		if err != nil {
			return 0, "", err
		}
		if !childNode.IsDir() {
			return 0, "", fserrors.New(syscall.ENOTDIR)
		}
		current = child
	}

	return current, leaf, nil
}
