package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartInactiveUserCleaner periodically removes users that have been
// deactivated for longer than retention. Their secrets, history and
// category links go with them through the ON DELETE CASCADE chain.
// The loop stops when ctx is cancelled.
func StartInactiveUserCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM users
                     WHERE active = false
                       AND updated_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to purge inactive users", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("purged inactive users", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
