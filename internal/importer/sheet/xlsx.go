package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSX reads Office Open XML workbooks.
type XLSX struct{}

func (XLSX) Read(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	return rows, nil
}
