package revlines

import (
	"fmt"
	"io"
	"os"
)

// Source is the random-access byte collaborator the readers consume.
// The content must not change for the lifetime of a reader.
type Source interface {
	Size() (int64, error)
	io.ReaderAt
	io.Closer
}

// NewFileSource opens the named file as a Source.
func NewFileSource(filename string) (FileSource, error) {
	f, err := os.Open(filename)
	if err != nil {
		return FileSource{}, fmt.Errorf("open %s: %w", filename, err)
	}
	return FileSource{f}, nil
}

type FileSource struct {
	*os.File
}

func (f FileSource) Size() (int64, error) {
	fi, err := f.File.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}

// NewBufferSource returns an empty in-memory Source. It exists for
// inputs that have no random access of their own (pipes, stdin): Spool
// drains the reader into memory first, then ReadAt serves from the
// buffer.
func NewBufferSource() *BufferSource {
	return &BufferSource{}
}

type BufferSource struct {
	buf []byte
}

// Spool reads r to EOF into the buffer and returns the number of bytes
// added.
func (s *BufferSource) Spool(r io.Reader) (int64, error) {
	b, err := io.ReadAll(r)
	s.buf = append(s.buf, b...)
	if err != nil {
		return int64(len(b)), fmt.Errorf("spool: %w", err)
	}
	return int64(len(b)), nil
}

func (s *BufferSource) Size() (int64, error) {
	return int64(len(s.buf)), nil
}

func (s *BufferSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(s.buf)) {
		return 0, io.EOF
	}
	n := copy(p, s.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *BufferSource) Close() error {
	s.buf = nil
	return nil
}
