// Package dirent implements the directory block format: a data block
// interpreted as a flat array of fixed-size entries.
//
// Each entry is packed the way the original fs5600 header does it: a single
// little-endian uint32 whose bit 0 is the valid flag and whose remaining 31
// bits are the child inode number, followed by a 28-byte null-terminated
// name. That makes each entry exactly 32 bytes, so 4096/32 = 128 entries
// fit in one block with no slack — the packing spec.md's wire-format
// section describes as separate u8/u32 fields does not divide evenly at
// 128 entries/block; see DESIGN.md.
package dirent

import (
	"bytes"
	"encoding/binary"

	"github.com/nmoore/fs5600/block"
)

// MaxNameLen is the longest name a directory entry can hold.
const MaxNameLen = 27

// EntrySize is the on-disk size of one directory entry, in bytes.
const EntrySize = 32

// EntriesPerBlock is the number of entries that fit in one directory block.
const EntriesPerBlock = block.BlockSize / EntrySize

// Entry is the in-core form of one directory entry.
type Entry struct {
	Valid bool
	Inum  uint32
	Name  string
}

// TruncateName truncates name to MaxNameLen bytes. The path resolver applies
// the same rule to every path component before a name reaches this package,
// and encodeEntry applies it again on insert, so a stored name never exceeds
// MaxNameLen bytes.
func TruncateName(name string) string {
	if len(name) > MaxNameLen {
		return name[:MaxNameLen]
	}
	return name
}

func decodeEntry(block []byte, slot int) Entry {
	off := slot * EntrySize
	word := binary.LittleEndian.Uint32(block[off : off+4])
	nameField := block[off+4 : off+EntrySize]

	n := bytes.IndexByte(nameField, 0)
	if n < 0 {
		n = len(nameField)
	}

	return Entry{
		Valid: word&1 != 0,
		Inum:  word >> 1,
		Name:  string(nameField[:n]),
	}
}

func encodeEntry(block []byte, slot int, valid bool, inum uint32, name string) {
	off := slot * EntrySize
	name = TruncateName(name)

	word := inum << 1
	if valid {
		word |= 1
	}
	binary.LittleEndian.PutUint32(block[off:off+4], word)

	nameField := block[off+4 : off+EntrySize]
	for i := range nameField {
		nameField[i] = 0
	}
	copy(nameField, name)
}

func clearValid(block []byte, slot int) {
	off := slot * EntrySize
	word := binary.LittleEndian.Uint32(block[off : off+4])
	word &^= 1
	binary.LittleEndian.PutUint32(block[off:off+4], word)
}
