package importer

import (
	"fmt"
	"io"

	"github.com/MrJamesThe3rd/grantledger/internal/budget"
	"github.com/MrJamesThe3rd/grantledger/internal/importer/budgetsheet"
	"github.com/MrJamesThe3rd/grantledger/internal/importer/sheet"
)

type Service struct {
	readers map[Format]sheet.Reader
	parser  *budgetsheet.Parser
}

func NewService() *Service {
	return &Service{
		readers: map[Format]sheet.Reader{
			FormatXLSX: sheet.XLSX{},
			FormatCSV:  sheet.CSV{},
		},
		parser: budgetsheet.NewParser(),
	}
}

// Parse reads the first sheet of an upload and returns its budget line items.
// ErrNoItems is returned when the file holds nothing recognisable.
func (s *Service) Parse(format Format, r io.Reader) ([]budget.ParsedRow, error) {
	reader, ok := s.readers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}

	raw, err := reader.Read(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", format, err)
	}

	rows := s.parser.Parse(raw)
	if len(rows) == 0 {
		return nil, ErrNoItems
	}

	return rows, nil
}
