package budget

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidAmount       = errors.New("transaction amount must be positive")
	ErrAmountOverflow      = errors.New("transaction would push the ledger total out of range")
	ErrInvalidPrice        = errors.New("item price must not be negative")
	ErrEmptyDescription    = errors.New("description is required")
	ErrAttachmentsDisabled = errors.New("proof attachments are not configured")
	ErrNothingToImport     = errors.New("no items to import")
	ErrNothingImported     = errors.New("no items were imported")
)
