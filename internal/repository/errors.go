// Package repository provides PostgreSQL persistence for users, secrets,
// secret history and categories.
//
// Repositories are stateless: every method takes the db.Querier to run
// on, so the same code serves plain pool access and transactions.
package repository

import (
	"database/sql"
	"errors"

	"github.com/atinyakov/PassKeeper/internal/apperr"
	"github.com/lib/pq"
)

const (
	uniqueViolation     = pq.ErrorCode("23505")
	foreignKeyViolation = pq.ErrorCode("23503")
)

// classify maps driver errors onto the application error kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.E(apperr.ErrNotFound, op, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case uniqueViolation:
			return apperr.E(apperr.ErrConflict, op, err)
		case foreignKeyViolation:
			return apperr.E(apperr.ErrNotFound, op, err)
		}
	}
	return apperr.Storage(op, err)
}
