package revlines

import (
	"strings"

	gencoding "github.com/gdamore/encoding"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// WidthClass describes how an encoding maps bytes to code units, which
// determines how the terminator search has to walk the byte stream.
type WidthClass int

const (
	// Fixed1 encodings are ASCII-compatible single-byte (or, for
	// UTF-8, multi-byte with continuation bytes >= 0x80): every 0x0A
	// and 0x0D byte is unambiguously a terminator.
	Fixed1 WidthClass = iota

	// Fixed2BE and Fixed2LE encodings use strict two-byte code units
	// with the given byte order; terminators occupy a full unit.
	Fixed2BE
	Fixed2LE

	// VariableDouble encodings are the legacy double-byte CJK family:
	// a character is one byte or a lead byte plus a trailing byte, and
	// a terminator-valued byte may be the trailing byte of a
	// character.
	VariableDouble
)

type byteRange struct{ lo, hi byte }

// EncodingProfile is the immutable per-encoding table the scanners
// consult: the byte width class, the lead byte ranges for double-byte
// encodings, and the decoder used to turn line bytes into text.
type EncodingProfile struct {
	Name   string
	Width  WidthClass
	leads  []byteRange // first byte of a two-byte character
	leads3 []byteRange // first byte of a three-byte character (EUC-JP SS3)
	enc    encoding.Encoding
}

// UnitSize returns the width of one code unit in bytes.
func (p *EncodingProfile) UnitSize() int {
	if p.Width == Fixed2BE || p.Width == Fixed2LE {
		return 2
	}
	return 1
}

// IsLead reports whether b can start a multi-byte character.
func (p *EncodingProfile) IsLead(b byte) bool {
	return p.LeadLen(b) > 1
}

// LeadLen returns the byte length of a character introduced by lead
// byte b, or 1 when b stands alone.
func (p *EncodingProfile) LeadLen(b byte) int {
	for _, r := range p.leads3 {
		if b >= r.lo && b <= r.hi {
			return 3
		}
	}
	for _, r := range p.leads {
		if b >= r.lo && b <= r.hi {
			return 2
		}
	}
	return 1
}

// NewDecoder returns a fresh decoder for the profile's charset.
func (p *EncodingProfile) NewDecoder() *encoding.Decoder {
	return p.enc.NewDecoder()
}

var profiles = map[string]*EncodingProfile{
	"utf-8":        {Name: "UTF-8", Width: Fixed1, enc: unicode.UTF8},
	"us-ascii":     {Name: "US-ASCII", Width: Fixed1, enc: gencoding.ASCII},
	"iso-8859-1":   {Name: "ISO-8859-1", Width: Fixed1, enc: charmap.ISO8859_1},
	"iso-8859-15":  {Name: "ISO-8859-15", Width: Fixed1, enc: charmap.ISO8859_15},
	"windows-1252": {Name: "windows-1252", Width: Fixed1, enc: charmap.Windows1252},
	"koi8-r":       {Name: "KOI8-R", Width: Fixed1, enc: charmap.KOI8R},

	"utf-16be": {
		Name:  "UTF-16BE",
		Width: Fixed2BE,
		enc:   unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	},
	"utf-16le": {
		Name:  "UTF-16LE",
		Width: Fixed2LE,
		enc:   unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
	},

	"shift-jis": {
		Name:  "Shift_JIS",
		Width: VariableDouble,
		leads: []byteRange{{0x81, 0x9f}, {0xe0, 0xfc}},
		enc:   japanese.ShiftJIS,
	},
	"euc-jp": {
		Name:   "EUC-JP",
		Width:  VariableDouble,
		leads:  []byteRange{{0x8e, 0x8e}, {0xa1, 0xfe}},
		leads3: []byteRange{{0x8f, 0x8f}}, // SS3 introduces JIS X 0212
		enc:    japanese.EUCJP,
	},
	"euc-kr": {
		Name:  "EUC-KR",
		Width: VariableDouble,
		leads: []byteRange{{0xa1, 0xfe}},
		enc:   korean.EUCKR,
	},
	"gbk": {
		Name:  "GBK",
		Width: VariableDouble,
		leads: []byteRange{{0x81, 0xfe}},
		enc:   simplifiedchinese.GBK,
	},
	"big5": {
		Name:  "Big5",
		Width: VariableDouble,
		leads: []byteRange{{0x81, 0xfe}},
		enc:   traditionalchinese.Big5,
	},
}

var aliases = map[string]string{
	"":            "utf-8",
	"utf8":        "utf-8",
	"ascii":       "us-ascii",
	"latin1":      "iso-8859-1",
	"latin9":      "iso-8859-15",
	"cp1252":      "windows-1252",
	"koi8r":       "koi8-r",
	"utf16be":     "utf-16be",
	"utf16le":     "utf-16le",
	"sjis":        "shift-jis",
	"cp932":       "shift-jis",
	"windows-31j": "shift-jis",
	"eucjp":       "euc-jp",
	"euckr":       "euc-kr",
	"cp936":       "gbk",
}

// Bare two-byte family names carry no byte order; without a BOM the
// scan direction of a code unit cannot be known, so they are rejected
// outright instead of defaulting to a variant.
var ambiguous = map[string]string{
	"utf-16":  "byte order unknown; use utf-16be or utf-16le",
	"utf16":   "byte order unknown; use utf-16be or utf-16le",
	"unicode": "byte order unknown; use utf-16be or utf-16le",
	"ucs-2":   "byte order unknown; use utf-16be or utf-16le",
}

// Resolve maps an encoding name to its profile. The empty name means
// the default (UTF-8). Names are matched case-insensitively with "_"
// and "-" treated alike.
func Resolve(name string) (*EncodingProfile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "-")
	if reason, ok := ambiguous[key]; ok {
		return nil, &UnsupportedEncodingError{Name: name, Reason: reason}
	}
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	p, ok := profiles[key]
	if !ok {
		return nil, &UnsupportedEncodingError{Name: name, Reason: "not in the supported set"}
	}
	return p, nil
}
