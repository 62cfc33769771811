// Package sheet reads uploaded spreadsheets into raw rows of cell text.
package sheet

import "io"

// Reader returns the rows of the first sheet of a workbook. Missing cells read as "".
type Reader interface {
	Read(r io.Reader) ([][]string, error)
}
