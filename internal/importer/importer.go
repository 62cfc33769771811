package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

var (
	ErrNoItems       = errors.New("no valid budget items found, check the spreadsheet format")
	ErrUnknownFormat = errors.New("unknown spreadsheet format")
)

// ParseFormat accepts a format name such as "xlsx" or ".CSV".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// FormatFromFilename picks the format from an upload's file extension.
func FormatFromFilename(name string) (Format, error) {
	return ParseFormat(filepath.Ext(name))
}
