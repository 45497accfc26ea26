package ingest

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText turns an uploaded text file into UTF-8 for the CSV reader.
//
// A UTF-16 byte order mark selects that encoding. A UTF-8 mark is dropped
// and the rest must be valid UTF-8. Without a mark, valid UTF-8 is taken as
// is and anything else is read as Shift_JIS, which is what Excel writes for
// a Japanese "CSV (comma delimited)" export. Input that decodes cleanly as
// none of these fails with ErrEncoding rather than reaching the user as
// replacement characters.
func decodeText(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		if err != nil {
			return nil, fmt.Errorf("%w: utf-16: %v", ErrEncoding, err)
		}
		return out, nil
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]
		if !utf8.Valid(data) {
			return nil, fmt.Errorf("%w: invalid utf-8 after byte order mark", ErrEncoding)
		}
		return data, nil
	case utf8.Valid(data):
		return data, nil
	}

	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, fmt.Errorf("%w: shift_jis: %v", ErrEncoding, err)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, fmt.Errorf("%w: neither utf-8 nor shift_jis", ErrEncoding)
	}
	return out, nil
}

// limitReader fails with ErrTooLarge once more than max bytes arrive.
// io.LimitReader would silently truncate instead. A max <= 0 disables it.
type limitReader struct {
	src  io.Reader
	max  int64
	seen int64
}

func newLimitReader(r io.Reader, max int64) *limitReader {
	return &limitReader{src: r, max: max}
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.max <= 0 {
		n, err := l.src.Read(p)
		l.seen += int64(n)
		return n, err
	}
	left := l.max - l.seen
	if left <= 0 {
		// one extra byte separates "exactly max" from "too large"
		var extra [1]byte
		if n, err := l.src.Read(extra[:]); n == 0 {
			return 0, err
		}
		return 0, ErrTooLarge
	}
	if int64(len(p)) > left {
		p = p[:left]
	}
	n, err := l.src.Read(p)
	l.seen += int64(n)
	return n, err
}

