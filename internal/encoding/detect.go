// Package encoding normalises uploaded text files to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffSize = 4096

// Charset labels reported by NewUTF8Reader.
const (
	CharsetUTF8        = "UTF-8"
	CharsetUTF16LE     = "UTF-16LE"
	CharsetUTF16BE     = "UTF-16BE"
	CharsetWindows1252 = "windows-1252"
	CharsetISO88599    = "ISO-8859-9"
)

var boms = []struct {
	prefix  []byte
	charset string
}{
	{[]byte{0xEF, 0xBB, 0xBF}, CharsetUTF8},
	{[]byte{0xFF, 0xFE}, CharsetUTF16LE},
	{[]byte{0xFE, 0xFF}, CharsetUTF16BE},
}

var decoders = map[string]encoding.Encoding{
	CharsetUTF16LE:     unicode.UTF16(unicode.LittleEndian, unicode.UseBOM),
	CharsetUTF16BE:     unicode.UTF16(unicode.BigEndian, unicode.UseBOM),
	CharsetWindows1252: charmap.Windows1252,
	CharsetISO88599:    charmap.ISO8859_9,
}

// Latin-1 is decoded as its Windows-1252 superset.
var aliases = map[string]string{
	"ISO-8859-1": CharsetWindows1252,
}

// NewUTF8Reader sniffs the start of r and returns a reader producing UTF-8 along
// with the charset it decided on.
//
// A byte order mark wins. Otherwise input that is already valid UTF-8 passes
// through, chardet is consulted, and Windows-1252 is the fallback: spreadsheet
// tools on Windows export CSV in the ANSI code page.
func NewUTF8Reader(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReaderSize(r, sniffSize)

	buf, err := br.Peek(sniffSize)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, "", fmt.Errorf("peek: %w", err)
	}

	for _, bom := range boms {
		if !bytes.HasPrefix(buf, bom.prefix) {
			continue
		}

		if bom.charset == CharsetUTF8 {
			_, _ = br.Discard(len(bom.prefix))
			return br, CharsetUTF8, nil
		}

		return transform.NewReader(br, decoders[bom.charset].NewDecoder()), bom.charset, nil
	}

	if utf8.Valid(trimPartialRune(buf)) {
		return br, CharsetUTF8, nil
	}

	if result, err := chardet.NewTextDetector().DetectBest(buf); err == nil {
		if result.Charset == CharsetUTF8 {
			return br, CharsetUTF8, nil
		}

		charset := result.Charset
		if alias, ok := aliases[charset]; ok {
			charset = alias
		}

		if enc, ok := decoders[charset]; ok {
			return transform.NewReader(br, enc.NewDecoder()), charset, nil
		}
	}

	return transform.NewReader(br, charmap.Windows1252.NewDecoder()), CharsetWindows1252, nil
}

// trimPartialRune drops a multi-byte UTF-8 sequence cut off by the sniff window.
func trimPartialRune(buf []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(buf); i++ {
		c := buf[len(buf)-i]
		if c < utf8.RuneSelf {
			return buf
		}

		if utf8.RuneStart(c) {
			if !utf8.FullRune(buf[len(buf)-i:]) {
				return buf[:len(buf)-i]
			}

			return buf
		}
	}

	return buf
}
