package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a read matched no rows or a write touched none.
var ErrNotFound = errors.New("row not found")

// scanErr maps the driver's no-rows sentinel to ErrNotFound so callers never
// have to import pgx to detect a missing row.
func scanErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
