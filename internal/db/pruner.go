package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartCachePruner deletes cold widget_cache rows with interval
func StartCachePruner(
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
				pruneCache(ctx, db, time.Now().Add(-retention), log)
			}
		}
	}()
}

func pruneCache(ctx context.Context, db *sql.DB, cutoff time.Time, log *zap.Logger) {
	res, err := db.ExecContext(ctx, `
        DELETE FROM widget_cache
         WHERE cached_at < $1
    `, cutoff)
	if err != nil {
		log.Error("failed to prune widget cache", zap.Error(err))
		return
	}
	if rows, _ := res.RowsAffected(); rows > 0 {
		log.Info("pruned cold widget cache rows", zap.Int64("removed", rows))
	}
}
