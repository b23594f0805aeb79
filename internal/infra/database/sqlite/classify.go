package sqlite

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/wonny/quotecatalog/internal/domain/catalog"
)

// classify wraps err in catalog.ErrConflict or catalog.ErrStoreFailure.
// Lock contention and key collisions are conflicts.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch {
		case sqliteErr.Code == sqlite3.ErrBusy,
			sqliteErr.Code == sqlite3.ErrLocked,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique,
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%w: %s: %w", catalog.ErrConflict, op, err)
		}
	}
	return fmt.Errorf("%w: %s: %w", catalog.ErrStoreFailure, op, err)
}
