package revlines

import (
	"errors"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	for _, test := range []struct {
		requested string
		wantName  string
		wantWidth WidthClass
	}{
		{"", "UTF-8", Fixed1},
		{"utf8", "UTF-8", Fixed1},
		{"UTF-8", "UTF-8", Fixed1},
		{"ascii", "US-ASCII", Fixed1},
		{"US-ASCII", "US-ASCII", Fixed1},
		{"latin1", "ISO-8859-1", Fixed1},
		{"ISO_8859-1", "ISO-8859-1", Fixed1},
		{"windows-1252", "windows-1252", Fixed1},
		{"koi8-r", "KOI8-R", Fixed1},
		{"UTF-16BE", "UTF-16BE", Fixed2BE},
		{"utf_16le", "UTF-16LE", Fixed2LE},
		{"Shift_JIS", "Shift_JIS", VariableDouble},
		{"SJIS", "Shift_JIS", VariableDouble},
		{"windows-31j", "Shift_JIS", VariableDouble},
		{"euc-jp", "EUC-JP", VariableDouble},
		{"EUC_KR", "EUC-KR", VariableDouble},
		{"gbk", "GBK", VariableDouble},
		{"Big5", "Big5", VariableDouble},
	} {
		p, err := Resolve(test.requested)
		if err != nil {
			t.Errorf("requested=%q: Unexpected error: %v", test.requested, err)
			continue
		}
		if p.Name != test.wantName || p.Width != test.wantWidth {
			t.Errorf("requested=%q: Got=%s/%d Want=%s/%d",
				test.requested, p.Name, p.Width, test.wantName, test.wantWidth)
		}
	}
}

func TestResolveRejections(t *testing.T) {
	for _, test := range []struct {
		requested  string
		wantReason string
	}{
		{"utf-16", "byte order"},
		{"UTF16", "byte order"},
		{"unicode", "byte order"},
		{"UCS_2", "byte order"},
		{"utf-32", "supported set"},
		{"ebcdic", "supported set"},
		{"morse", "supported set"},
	} {
		_, err := Resolve(test.requested)
		var ue *UnsupportedEncodingError
		if !errors.As(err, &ue) {
			t.Errorf("requested=%q: Got=%v Want=UnsupportedEncodingError", test.requested, err)
			continue
		}
		if ue.Name != test.requested {
			t.Errorf("requested=%q: error names %q", test.requested, ue.Name)
		}
		if !strings.Contains(ue.Reason, test.wantReason) {
			t.Errorf("requested=%q: reason=%q does not mention %q", test.requested, ue.Reason, test.wantReason)
		}
	}
}

func TestIsLead(t *testing.T) {
	for _, test := range []struct {
		encoding string
		b        byte
		want     bool
	}{
		{"shift_jis", 0x80, false},
		{"shift_jis", 0x81, true},
		{"shift_jis", 0x9f, true},
		{"shift_jis", 0xa0, false},
		{"shift_jis", 0xdf, false}, // half-width katakana, single byte
		{"shift_jis", 0xe0, true},
		{"shift_jis", 0xfc, true},
		{"shift_jis", 0xfd, false},
		{"euc-jp", 0x8e, true},
		{"euc-jp", 0x8f, true},
		{"euc-jp", 0x90, false},
		{"euc-jp", 0xa1, true},
		{"gbk", 0x80, false},
		{"gbk", 0x81, true},
		{"gbk", 0xfe, true},
		{"big5", 0xa4, true},
		{"utf-8", 0xe6, false},
	} {
		p, err := Resolve(test.encoding)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got := p.IsLead(test.b); got != test.want {
			t.Errorf("%s IsLead(%#x): Got=%v Want=%v", test.encoding, test.b, got, test.want)
		}
	}
}

func TestLeadLen(t *testing.T) {
	for _, test := range []struct {
		encoding string
		b        byte
		want     int
	}{
		{"euc-jp", 0x8e, 2}, // SS2: half-width katakana
		{"euc-jp", 0x8f, 3}, // SS3: JIS X 0212
		{"euc-jp", 0xa1, 2},
		{"euc-jp", 'a', 1},
		{"shift_jis", 0x81, 2},
		{"shift_jis", 'a', 1},
		{"utf-8", 0xe6, 1},
	} {
		p, err := Resolve(test.encoding)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got := p.LeadLen(test.b); got != test.want {
			t.Errorf("%s LeadLen(%#x): Got=%d Want=%d", test.encoding, test.b, got, test.want)
		}
	}
}

func TestUnitSize(t *testing.T) {
	for _, test := range []struct {
		encoding string
		want     int
	}{
		{"utf-8", 1},
		{"shift_jis", 1},
		{"utf-16be", 2},
		{"utf-16le", 2},
	} {
		p, err := Resolve(test.encoding)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if got := p.UnitSize(); got != test.want {
			t.Errorf("%s: Got=%d Want=%d", test.encoding, got, test.want)
		}
	}
}
