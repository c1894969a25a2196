package pathutil_test

import (
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fserrors "github.com/nmoore/fs5600/errors"
	"github.com/nmoore/fs5600/inode"
	"github.com/nmoore/fs5600/pathutil"
)

// fakeTree is an in-memory Lookup implementation for exercising the
// resolver without a real block device.
type fakeTree struct {
	inodes   map[uint32]*inode.Inode
	children map[uint32]map[string]uint32
	nextInum uint32
}

func newFakeTree() *fakeTree {
	root := &inode.Inode{Mode: syscall.S_IFDIR | 0755}
	return &fakeTree{
		inodes:   map[uint32]*inode.Inode{pathutil.RootInum: root},
		children: map[uint32]map[string]uint32{pathutil.RootInum: {}},
		nextInum: pathutil.RootInum + 1,
	}
}

func (f *fakeTree) mkdir(parent uint32, name string) uint32 {
	inum := f.nextInum
	f.nextInum++
	f.inodes[inum] = &inode.Inode{Mode: syscall.S_IFDIR | 0755}
	f.children[inum] = map[string]uint32{}
	f.children[parent][name] = inum
	return inum
}

func (f *fakeTree) touch(parent uint32, name string) uint32 {
	inum := f.nextInum
	f.nextInum++
	f.inodes[inum] = &inode.Inode{Mode: syscall.S_IFREG | 0644}
	f.children[parent][name] = inum
	return inum
}

func (f *fakeTree) LoadInode(inum uint32) (*inode.Inode, *fserrors.DriverError) {
	n, ok := f.inodes[inum]
	if !ok {
		return nil, fserrors.New(syscall.ENOENT)
	}
	return n, nil
}

func (f *fakeTree) FindChild(dir *inode.Inode, name string) (uint32, *fserrors.DriverError) {
	for inum, kids := range f.children {
		if f.inodes[inum] == dir {
			if child, ok := kids[name]; ok {
				return child, nil
			}
			return 0, fserrors.New(syscall.ENOENT)
		}
	}
	return 0, fserrors.New(syscall.ENOENT)
}

func TestResolveRootPath(t *testing.T) {
	tree := newFakeTree()
	r := pathutil.NewResolver(tree)

	inum, err := r.Resolve("/")
	require.Nil(t, err)
	assert.EqualValues(t, pathutil.RootInum, inum)

	inum, err = r.Resolve("")
	require.Nil(t, err)
	assert.EqualValues(t, pathutil.RootInum, inum)
}

func TestResolveNestedFile(t *testing.T) {
	tree := newFakeTree()
	sub := tree.mkdir(pathutil.RootInum, "sub")
	file := tree.touch(sub, "file.txt")

	r := pathutil.NewResolver(tree)
	inum, err := r.Resolve("/sub/file.txt")
	require.Nil(t, err)
	assert.Equal(t, file, inum)
}

func TestResolveMissingComponent(t *testing.T) {
	tree := newFakeTree()
	r := pathutil.NewResolver(tree)

	_, err := r.Resolve("/nope")
	require.NotNil(t, err)
	assert.Equal(t, syscall.ENOENT, err.Errno())
}

func TestResolveThroughNonDirectoryFails(t *testing.T) {
	tree := newFakeTree()
	tree.touch(pathutil.RootInum, "file")

	r := pathutil.NewResolver(tree)
	_, err := r.Resolve("/file/nested")
	require.NotNil(t, err)
	assert.Equal(t, syscall.ENOTDIR, err.Errno())
}

func TestResolveTooManyComponents(t *testing.T) {
	tree := newFakeTree()
	r := pathutil.NewResolver(tree)

	parts := make([]string, 0, pathutil.MaxComponents+1)
	for i := 0; i < pathutil.MaxComponents+1; i++ {
		parts = append(parts, "a")
	}
	path := "/" + strings.Join(parts, "/")

	_, err := r.Resolve(path)
	require.NotNil(t, err)
	assert.Equal(t, syscall.EINVAL, err.Errno())
}

func TestResolveParentSplitsLeaf(t *testing.T) {
	tree := newFakeTree()
	sub := tree.mkdir(pathutil.RootInum, "sub")

	r := pathutil.NewResolver(tree)
	parentInum, leaf, err := r.ResolveParent("/sub/newfile")
	require.Nil(t, err)
	assert.Equal(t, sub, parentInum)
	assert.Equal(t, "newfile", leaf)
}

func TestResolveParentOfTopLevelNameIsRoot(t *testing.T) {
	tree := newFakeTree()
	r := pathutil.NewResolver(tree)

	parentInum, leaf, err := r.ResolveParent("/onlyname")
	require.Nil(t, err)
	assert.EqualValues(t, pathutil.RootInum, parentInum)
	assert.Equal(t, "onlyname", leaf)
}

func TestResolveParentOfRootIsRejected(t *testing.T) {
	tree := newFakeTree()
	r := pathutil.NewResolver(tree)

	_, _, err := r.ResolveParent("/")
	require.NotNil(t, err)
	assert.Equal(t, syscall.EINVAL, err.Errno())
}

func TestComponentsAreTruncatedTo27Bytes(t *testing.T) {
	tree := newFakeTree()
	longName := strings.Repeat("x", 40)
	tree.touch(pathutil.RootInum, longName[:pathutil.MaxNameLen])

	r := pathutil.NewResolver(tree)
	_, err := r.Resolve("/" + longName)
	require.Nil(t, err, "the over-long path component should be truncated before lookup")
}
