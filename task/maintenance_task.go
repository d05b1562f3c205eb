package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/angas/nmcweather-go/config"
	"github.com/angas/nmcweather-go/database"
)

func NewMaintenanceTask(logger *slog.Logger, db *database.Database, cnfg *config.AppConfig) func() {
	return func() {
		logger.Debug("running maintenance task...")

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()

		if _, err := db.Backup(ctx); err != nil {
			logger.Error("database backup error", slog.Any("error", err))
		}

		backups, err := db.PurgeBackups(ctx, cnfg.Database.GetBackupRetentionDays())
		if err != nil {
			logger.Error("backup maintenance error", slog.Any("error", err))
		}

		entries, err := db.PurgeLog(ctx, cnfg.Logging.GetDbMaxEntries())
		if err != nil {
			logger.Error("log maintenance error", slog.Any("error", err))
		}

		if err := db.PurgeSnapshots(ctx, cnfg.Station.Code); err != nil {
			logger.Error("snapshot maintenance error", slog.Any("error", err))
		}

		logger.Info("maintenance task done",
			slog.Int("backupsRemoved", backups),
			slog.Int64("logEntriesRemoved", entries))
	}
}
