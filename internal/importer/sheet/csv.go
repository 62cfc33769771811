package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/grantledger/internal/encoding"
)

// CSV reads comma or semicolon separated exports in any charset NewUTF8Reader handles.
type CSV struct{}

func (CSV) Read(r io.Reader) ([][]string, error) {
	utf8r, _, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	br := bufio.NewReader(utf8r)

	reader := csv.NewReader(br)
	reader.Comma = sniffDelimiter(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	return rows, nil
}

// sniffDelimiter picks ';' when the first line has more semicolons than commas.
// Locales with a decimal comma export that way.
func sniffDelimiter(br *bufio.Reader) rune {
	head, _ := br.Peek(br.Size())

	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	if bytes.Count(head, []byte{';'}) > bytes.Count(head, []byte{','}) {
		return ';'
	}

	return ','
}
