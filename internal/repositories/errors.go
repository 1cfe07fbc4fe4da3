package repositories

import "errors"

// Common repository errors. Storage failures are translated into these
// at the repository boundary so callers never see driver detail.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
	ErrForeignKey   = errors.New("foreign key violation")
)
