package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

// PostgreSQL error codes that a fresh attempt can get past
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// classify wraps err in catalog.ErrConflict or catalog.ErrStoreFailure
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
			return fmt.Errorf("%w: %s: %w", catalog.ErrConflict, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", catalog.ErrStoreFailure, op, err)
}
