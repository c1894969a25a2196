// Package inode defines the fixed-width on-disk inode record and the store
// that reads/writes it by block number, per spec.md §4.3 and §6.
package inode

import (
	"bytes"
	"encoding/binary"
	"syscall"

	fserrors "github.com/nmoore/fs5600/errors"
)

// NumDirect is the number of direct block pointers an inode carries. There
// are no indirect pointers, so NumDirect*block.BlockSize is the maximum
// object size.
const NumDirect = 10

// wireSize is the number of bytes the fixed fields occupy on disk; the rest
// of the inode's block is zero padding.
const wireSize = 6*4 + NumDirect*4

// Inode is the in-core form of one on-disk inode record.
type Inode struct {
	UID   uint32
	GID   uint32
	Mode  uint32
	CTime uint32
	MTime uint32
	Size  uint32
	Ptrs  [NumDirect]uint32
}

// IsDir reports whether the inode's mode has the directory type bit set.
func (n *Inode) IsDir() bool {
	return n.Mode&syscall.S_IFMT == syscall.S_IFDIR
}

// IsRegular reports whether the inode's mode has the regular-file type bit
// set (or no type bits at all, which this format treats as a regular file).
func (n *Inode) IsRegular() bool {
	return n.Mode&syscall.S_IFMT == syscall.S_IFREG || n.Mode&syscall.S_IFMT == 0
}

// Marshal encodes the inode into a full block-sized (4096-byte) buffer.
func (n *Inode) Marshal(blockSize int) []byte {
	buf := make([]byte, blockSize)
	w := bytes.NewBuffer(buf[:0])

	binary.Write(w, binary.LittleEndian, n.UID)
	binary.Write(w, binary.LittleEndian, n.GID)
	binary.Write(w, binary.LittleEndian, n.Mode)
	binary.Write(w, binary.LittleEndian, n.CTime)
	binary.Write(w, binary.LittleEndian, n.MTime)
	binary.Write(w, binary.LittleEndian, n.Size)
	for _, p := range n.Ptrs {
		binary.Write(w, binary.LittleEndian, p)
	}

	copy(buf, w.Bytes())
	return buf
}

// Unmarshal decodes an inode from a block-sized buffer produced by Marshal.
func Unmarshal(data []byte) (*Inode, *fserrors.DriverError) {
	if len(data) < wireSize {
		return nil, fserrors.Newf(syscall.EIO, "inode record truncated: got %d bytes", len(data))
	}

	r := bytes.NewReader(data[:wireSize])
	n := &Inode{}

	binary.Read(r, binary.LittleEndian, &n.UID)
	binary.Read(r, binary.LittleEndian, &n.GID)
	binary.Read(r, binary.LittleEndian, &n.Mode)
	binary.Read(r, binary.LittleEndian, &n.CTime)
	binary.Read(r, binary.LittleEndian, &n.MTime)
	binary.Read(r, binary.LittleEndian, &n.Size)
	for i := range n.Ptrs {
		binary.Read(r, binary.LittleEndian, &n.Ptrs[i])
	}

	return n, nil
}
