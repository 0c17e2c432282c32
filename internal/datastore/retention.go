package datastore

import (
	"context"
	"time"

	"github.com/sanduskycurrent/scanner-stream/internal/conf"
	"github.com/sanduskycurrent/scanner-stream/internal/logging"
)

// RetentionSweep periodically deletes persisted entries older than the
// configured retention window. It runs until ctx is cancelled. onDeleted,
// when non-nil, observes the number of rows removed per sweep.
func RetentionSweep(ctx context.Context, ds Interface, settings conf.RetentionSettings, onDeleted func(int64)) {
	logger := logging.ForService("retention")
	if !settings.Enabled {
		logger.Info("retention sweep disabled")
		return
	}

	logger.Info("retention sweep started",
		"max_age", settings.MaxAge,
		"interval", settings.Interval)

	ticker := time.NewTicker(settings.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("retention sweep stopped")
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-settings.MaxAge)
			deleted, err := ds.ExpireBefore(cutoff)
			if err != nil {
				logger.Error("retention sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Info("retention sweep removed expired entries",
					"deleted", deleted, "cutoff", cutoff)
			}
			if onDeleted != nil {
				onDeleted(deleted)
			}
		}
	}
}
