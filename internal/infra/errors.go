package infra

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// IsNoRows reports whether err is the pgx no-rows sentinel. Callers outside
// the infra package can translate it without importing pgx directly.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
