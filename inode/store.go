package inode

import (
	"syscall"

	"github.com/nmoore/fs5600/block"
	fserrors "github.com/nmoore/fs5600/errors"
)

// Store reads and writes inode records through a block.Device. Since inode
// identity is the block number that holds the record, there is no separate
// inode table: any block number in range is a potential inode.
type Store struct {
	dev *block.Device
}

// NewStore creates a Store backed by dev.
func NewStore(dev *block.Device) *Store {
	return &Store{dev: dev}
}

func (s *Store) checkInum(inum uint32) *fserrors.DriverError {
	if inum >= s.dev.TotalBlocks() {
		return fserrors.Newf(
			syscall.EINVAL,
			"inode number %d out of range [0, %d)",
			inum,
			s.dev.TotalBlocks(),
		)
	}
	return nil
}

// ReadInode loads the inode record stored at block inum.
func (s *Store) ReadInode(inum uint32) (*Inode, *fserrors.DriverError) {
	if err := s.checkInum(inum); err != nil {
		return nil, err
	}

	data, err := s.dev.ReadBlock(inum)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// WriteInode persists n at block inum.
func (s *Store) WriteInode(inum uint32, n *Inode) *fserrors.DriverError {
	if err := s.checkInum(inum); err != nil {
		return err
	}
	return s.dev.WriteBlock(inum, n.Marshal(block.BlockSize))
}
