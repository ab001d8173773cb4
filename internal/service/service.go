// Package service provides the business logic for secrets, their history,
// users and categories, delegating persistence to repository interfaces.
package service

import (
	"context"
	"time"

	"github.com/atinyakov/PassKeeper/internal/db"
)

// Transactor runs a unit of work in a single database transaction.
type Transactor interface {
	InTx(ctx context.Context, fn func(q db.Querier) error) error
}

// clock returns the current time truncated to microseconds, the
// resolution PostgreSQL stores.
func clock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
