package block

import (
	"fmt"
	"io"
)

// streamPrimitives implements Primitives over any seekable stream, treating
// it as a flat array of fixed-size blocks starting at byte 0. This is the
// same seek-then-read/write shape the teacher codebase's BlockStream uses,
// collapsed to the single block size fs5600 needs.
type streamPrimitives struct {
	stream io.ReadWriteSeeker
}

// NewStreamPrimitives adapts any io.ReadWriteSeeker (a real file, or an
// in-memory buffer such as bytesextra.NewReadWriteSeeker) into Primitives.
func NewStreamPrimitives(stream io.ReadWriteSeeker) Primitives {
	return &streamPrimitives{stream: stream}
}

func (s *streamPrimitives) seekTo(lba int) error {
	_, err := s.stream.Seek(int64(lba)*BlockSize, io.SeekStart)
	return err
}

func (s *streamPrimitives) BlockRead(buf []byte, lba, nblks int) error {
	want := nblks * BlockSize
	if len(buf) < want {
		return fmt.Errorf("buffer too small: need %d bytes, got %d", want, len(buf))
	}
	if err := s.seekTo(lba); err != nil {
		return err
	}
	n, err := io.ReadFull(s.stream, buf[:want])
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("short read: wanted %d bytes, got %d", want, n)
	}
	return nil
}

func (s *streamPrimitives) BlockWrite(buf []byte, lba, nblks int) error {
	want := nblks * BlockSize
	if len(buf) < want {
		return fmt.Errorf("buffer too small: need %d bytes, got %d", want, len(buf))
	}
	if err := s.seekTo(lba); err != nil {
		return err
	}
	n, err := s.stream.Write(buf[:want])
	if err != nil {
		return err
	}
	if n != want {
		return fmt.Errorf("short write: wanted %d bytes, wrote %d", want, n)
	}
	return nil
}
