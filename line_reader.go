package revlines

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"
)

// LineReader yields decoded lines one at a time and io.EOF when the
// input is exhausted. BackwardLineReader walks the file last line
// first; ForwardLineReader walks it first line first with the same
// terminator and encoding semantics, which is what makes the two
// directly comparable.
type LineReader interface {
	ReadLine() (string, error)
	Close() error
}

// ForwardLineReader reads lines from a Source front to back. It shares
// the encoding profiles with BackwardLineReader: a lead byte always
// consumes its character's trailing bytes, so a terminator-valued
// trailing byte is stepped over in the forward direction exactly where
// the backward scan refuses to split.
//
// Not safe for concurrent use.
type ForwardLineReader struct {
	src     Source
	log     Logger
	profile *EncodingProfile
	dec     *encoding.Decoder
	block   int
	readBuf []byte

	size int64
	off  int64 // offset of the next byte to load
	base int64 // absolute offset of win[0]
	win  []byte
	scan int

	done   bool
	closed bool
	err    error
}

func NewForwardLineReader(src Source, config Config) (*ForwardLineReader, error) {
	profile, err := Resolve(config.Encoding)
	if err != nil {
		return nil, err
	}
	block := config.BlockSize
	if block == 0 {
		block = defaultBlockSize
	}
	if block < 0 {
		return nil, fmt.Errorf("%w: %d", ErrBlockSize, config.BlockSize)
	}
	unit := profile.UnitSize()
	if block < unit {
		block = unit
	}
	if rem := block % unit; rem != 0 {
		block += unit - rem
	}
	size, err := src.Size()
	if err != nil {
		return nil, fmt.Errorf("size: %w", err)
	}
	log := config.Logger
	if log == nil {
		log = NullLogger{}
	}
	return &ForwardLineReader{
		src:     src,
		log:     log,
		profile: profile,
		dec:     profile.NewDecoder(),
		block:   block,
		readBuf: make([]byte, block),
		size:    size,
	}, nil
}

// ReadLine returns the next line moving toward the end of the file,
// without its terminator.
func (f *ForwardLineReader) ReadLine() (string, error) {
	if f.closed {
		return "", ErrClosed
	}
	if f.err != nil {
		return "", f.err
	}
	if f.done {
		return "", io.EOF
	}
	for {
		var line []byte
		var found, more bool
		if f.profile.UnitSize() == 2 {
			line, found, more = f.nextLine2()
		} else {
			line, found, more = f.nextLine()
		}
		if found {
			return f.decode(line)
		}
		if more {
			if err := f.load(); err != nil {
				return "", f.fail(err)
			}
			continue
		}
		// End of input: the final unterminated segment is a line only
		// if it is non-empty.
		f.done = true
		if len(f.win) == 0 {
			return "", io.EOF
		}
		line = f.win
		f.win = nil
		f.scan = 0
		return f.decode(line)
	}
}

// Close releases the Source. Idempotent.
func (f *ForwardLineReader) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true
	f.win = nil
	if err := f.src.Close(); err != nil {
		f.log.Warn("closing source: %v", err)
		return err
	}
	return nil
}

func (f *ForwardLineReader) fail(err error) error {
	f.log.Warn("read failed: %v", err)
	f.err = err
	return err
}

func (f *ForwardLineReader) atEOF() bool {
	return f.off >= f.size
}

func (f *ForwardLineReader) nextLine() (line []byte, found, more bool) {
	i := f.scan
	n := len(f.win)
	for i < n {
		c := f.win[i]
		if w := f.profile.LeadLen(c); w > 1 {
			if i+w > n {
				if !f.atEOF() {
					f.scan = i
					return nil, false, true
				}
				// Truncated character at end of file; the remaining
				// bytes all belong to it.
				i = n
				continue
			}
			i += w
			continue
		}
		switch c {
		case '\n':
			line = f.win[:i]
			f.consume(i + 1)
			return line, true, false
		case '\r':
			if i+1 >= n && !f.atEOF() {
				f.scan = i
				return nil, false, true
			}
			adv := i + 1
			if i+1 < n && f.win[i+1] == '\n' {
				adv = i + 2
			}
			line = f.win[:i]
			f.consume(adv)
			return line, true, false
		}
		i++
	}
	f.scan = i
	return nil, false, !f.atEOF()
}

func (f *ForwardLineReader) nextLine2() (line []byte, found, more bool) {
	i := f.scan
	if (f.base+int64(i))%2 != 0 {
		i++
	}
	n := len(f.win)
	for i+2 <= n {
		switch f.unitAt(i) {
		case '\n':
			line = f.win[:i]
			f.consume(i + 2)
			return line, true, false
		case '\r':
			if i+4 > n && !f.atEOF() {
				f.scan = i
				return nil, false, true
			}
			adv := i + 2
			if i+4 <= n && f.unitAt(i+2) == '\n' {
				adv = i + 4
			}
			line = f.win[:i]
			f.consume(adv)
			return line, true, false
		}
		i += 2
	}
	f.scan = i
	return nil, false, !f.atEOF()
}

func (f *ForwardLineReader) consume(k int) {
	f.win = f.win[k:]
	f.base += int64(k)
	f.scan = 0
}

func (f *ForwardLineReader) load() error {
	want := int64(f.block)
	if want > f.size-f.off {
		want = f.size - f.off
	}
	buf := f.readBuf[:want]
	n, err := f.src.ReadAt(buf, f.off)
	if int64(n) < want {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("read block [%d,%d): %w", f.off, f.off+want, err)
	}
	f.log.Debug("loaded block: start=%d len=%d window=%d", f.off, want, len(f.win))
	f.win = append(f.win, buf...)
	f.off += want
	return nil
}

func (f *ForwardLineReader) unitAt(i int) uint16 {
	if f.profile.Width == Fixed2LE {
		return uint16(f.win[i]) | uint16(f.win[i+1])<<8
	}
	return uint16(f.win[i])<<8 | uint16(f.win[i+1])
}

func (f *ForwardLineReader) decode(p []byte) (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	out, err := f.dec.Bytes(p)
	if err != nil {
		return "", f.fail(fmt.Errorf("decode %s: %w", f.profile.Name, err))
	}
	return string(out), nil
}
