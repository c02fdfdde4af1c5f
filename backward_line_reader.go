package revlines

import (
	"fmt"
	"io"

	"golang.org/x/text/encoding"

	"github.com/ltroja/revlines/assert"
)

const defaultBlockSize = 1 << 12

// BackwardLineReader reads the lines of a Source in reverse order,
// last line of the file first, loading fixed-size blocks backward from
// the end instead of buffering the whole file. Terminator detection
// honors the encoding profile so that a terminator-valued byte inside
// a multi-byte character is never treated as a line break.
//
// Not safe for concurrent use.
type BackwardLineReader struct {
	src     Source
	log     Logger
	profile *EncodingProfile
	dec     *encoding.Decoder
	block   int
	readBuf []byte

	// win holds the unconsumed suffix of the file in forward byte
	// order; pos is the absolute offset of win[0] and only ever moves
	// toward zero. cursor bounds the backward terminator search: bytes
	// at or above it have already been ruled out or consumed.
	win    []byte
	pos    int64
	cursor int

	tailChecked bool
	done        bool
	closed      bool
	err         error
}

// NewBackwardLineReader constructs a reader over src. The reader owns
// src from here on: Close releases it, on every path.
func NewBackwardLineReader(src Source, config Config) (*BackwardLineReader, error) {
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
	return &BackwardLineReader{
		src:     src,
		log:     log,
		profile: profile,
		dec:     profile.NewDecoder(),
		block:   block,
		readBuf: make([]byte, block),
		pos:     size,
	}, nil
}

// ReadLine returns the next line moving toward the start of the file,
// without its terminator. It returns io.EOF once every byte has been
// yielded as exactly one line.
func (b *BackwardLineReader) ReadLine() (string, error) {
	if b.closed {
		return "", ErrClosed
	}
	if b.err != nil {
		return "", b.err
	}
	if b.done {
		return "", io.EOF
	}
	for {
		if !b.tailChecked {
			if len(b.win) == 0 {
				if b.pos == 0 {
					b.done = true
					return "", io.EOF
				}
				if err := b.prepend(); err != nil {
					return "", b.fail(err)
				}
				continue
			}
			if !b.trimTail() {
				// The trailing bytes cannot be classified without the
				// preceding block.
				if err := b.prepend(); err != nil {
					return "", b.fail(err)
				}
				continue
			}
			b.tailChecked = true
			b.cursor = len(b.win)
			if len(b.win) == 0 && b.pos == 0 {
				// The whole file is a single terminator: one empty line.
				b.done = true
				return "", nil
			}
			continue
		}

		ts, te, found := b.findTerminator()
		if found {
			line := b.win[te:]
			b.win = b.win[:ts]
			b.cursor = ts
			return b.decode(line)
		}
		if b.pos > 0 {
			if err := b.prepend(); err != nil {
				return "", b.fail(err)
			}
			continue
		}
		// Start of file: whatever remains is the first line. It may be
		// empty when the file begins with a terminator.
		b.done = true
		line := b.win
		b.win = nil
		b.cursor = 0
		return b.decode(line)
	}
}

// Close releases the Source. Idempotent; a failure is logged and
// returned but never disturbs lines already produced.
func (b *BackwardLineReader) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.win = nil
	if err := b.src.Close(); err != nil {
		b.log.Warn("closing source: %v", err)
		return err
	}
	return nil
}

func (b *BackwardLineReader) fail(err error) error {
	b.log.Warn("read failed: %v", err)
	b.err = err
	return err
}

// prepend loads the block immediately preceding the window and splices
// it onto the front.
func (b *BackwardLineReader) prepend() error {
	assert.True(b.pos > 0)
	want := int64(b.block)
	if want > b.pos {
		want = b.pos
	}
	start := b.pos - want
	buf := b.readBuf[:want]
	n, err := b.src.ReadAt(buf, start)
	if int64(n) < want {
		if err == nil || err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("read block [%d,%d): %w", start, b.pos, err)
	}
	b.log.Debug("loaded block: start=%d len=%d window=%d", start, want, len(b.win))
	merged := make([]byte, int(want)+len(b.win))
	copy(merged, buf)
	copy(merged[want:], b.win)
	b.win = merged
	b.pos = start
	b.cursor += int(want)
	return nil
}

// trimTail removes the file's trailing terminator, if any, so that a
// file ending in a terminator does not yield a spurious empty line. It
// reports false when the window is too short to classify the tail and
// more bytes must be loaded first.
func (b *BackwardLineReader) trimTail() bool {
	if b.profile.UnitSize() == 2 {
		return b.trimTail2()
	}
	n := len(b.win)
	switch b.win[n-1] {
	case '\n':
		_, claimed, ok := b.trailClaimed(n - 1)
		if !ok {
			return false
		}
		if claimed {
			// Trailing byte of a character, not a terminator.
			return true
		}
		if n >= 2 && b.win[n-2] == '\r' {
			_, claimed, ok = b.trailClaimed(n - 2)
			if !ok {
				return false
			}
			if claimed {
				b.win = b.win[:n-1]
			} else {
				b.win = b.win[:n-2]
			}
			return true
		}
		if n == 1 && b.pos > 0 {
			// The preceding byte may be '\r'.
			return false
		}
		b.win = b.win[:n-1]
		return true
	case '\r':
		_, claimed, ok := b.trailClaimed(n - 1)
		if !ok {
			return false
		}
		if !claimed {
			b.win = b.win[:n-1]
		}
		return true
	}
	return true
}

func (b *BackwardLineReader) trimTail2() bool {
	n := len(b.win)
	if n < 2 {
		return b.pos == 0
	}
	i := n - 2
	if !b.alignedUnit(i) {
		// Odd-length tail; no complete unit ends the file.
		return true
	}
	switch b.unitAt(i) {
	case '\n':
		if i >= 2 {
			if b.unitAt(i-2) == '\r' {
				b.win = b.win[:i-2]
			} else {
				b.win = b.win[:i]
			}
			return true
		}
		if b.pos > 0 {
			return false
		}
		b.win = b.win[:i]
		return true
	case '\r':
		b.win = b.win[:i]
		return true
	}
	return true
}

// findTerminator scans backward from the cursor for the nearest line
// terminator. On success it returns the terminator's window range
// [ts,te). On failure it leaves the cursor positioned so that, after
// the next prepend shifts it, any candidate that lacked look-behind
// context is re-examined with its preceding bytes in the window.
func (b *BackwardLineReader) findTerminator() (ts, te int, found bool) {
	if b.profile.UnitSize() == 2 {
		return b.findTerminator2()
	}
	i := b.cursor - 1
	for i >= 0 {
		c := b.win[i]
		if c != '\n' && c != '\r' {
			i--
			continue
		}
		lead, claimed, ok := b.trailClaimed(i)
		if !ok {
			b.cursor = i + 1
			return 0, 0, false
		}
		if claimed {
			// Trailing byte of a character; step over the whole character.
			i = lead - 1
			continue
		}
		if c == '\n' && i > 0 && b.win[i-1] == '\r' {
			_, claimed, ok = b.trailClaimed(i - 1)
			if !ok {
				b.cursor = i + 1
				return 0, 0, false
			}
			if !claimed {
				return i - 1, i + 1, true
			}
			// The '\r' is character content; the '\n' stands alone.
		}
		return i, i + 1, true
	}
	b.cursor = 0
	return 0, 0, false
}

func (b *BackwardLineReader) findTerminator2() (ts, te int, found bool) {
	i := b.cursor - 2
	if i >= 0 && !b.alignedUnit(i) {
		i--
	}
	for i >= 0 {
		switch b.unitAt(i) {
		case '\n':
			if i == 0 && b.pos > 0 {
				// The preceding unit may be '\r'.
				b.cursor = i + 2
				return 0, 0, false
			}
			if i >= 2 && b.unitAt(i-2) == '\r' {
				return i - 2, i + 2, true
			}
			return i, i + 2, true
		case '\r':
			return i, i + 2, true
		}
		i -= 2
	}
	b.cursor = 0
	return 0, 0, false
}

// trailClaimed reports whether the byte at index i is a trailing byte
// of a multi-byte character, and if so the window index of that
// character's lead byte. Lead and trailing byte ranges overlap in the
// double-byte encodings, so a single byte of look-behind is not
// enough: the run of consecutive lead-capable bytes directly before i
// starts at a character boundary (the byte before it, if any, stands
// alone), so walking the run forward by each lead's character length
// decides whether i begins a fresh character or sits inside one. ok is
// false when the run reaches the front of the window while earlier
// file bytes remain unloaded, since those bytes could extend the run.
func (b *BackwardLineReader) trailClaimed(i int) (lead int, claimed, ok bool) {
	start := i
	for start > 0 && b.profile.IsLead(b.win[start-1]) {
		start--
	}
	if start == 0 && b.pos > 0 {
		return 0, false, false
	}
	for j := start; j < i; {
		next := j + b.profile.LeadLen(b.win[j])
		if next > i {
			return j, true, true
		}
		j = next
	}
	return i, false, true
}

func (b *BackwardLineReader) alignedUnit(i int) bool {
	return (b.pos+int64(i))%2 == 0
}

func (b *BackwardLineReader) unitAt(i int) uint16 {
	if b.profile.Width == Fixed2LE {
		return uint16(b.win[i]) | uint16(b.win[i+1])<<8
	}
	return uint16(b.win[i])<<8 | uint16(b.win[i+1])
}

func (b *BackwardLineReader) decode(p []byte) (string, error) {
	if len(p) == 0 {
		return "", nil
	}
	out, err := b.dec.Bytes(p)
	if err != nil {
		return "", b.fail(fmt.Errorf("decode %s: %w", b.profile.Name, err))
	}
	return string(out), nil
}
