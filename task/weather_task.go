package task

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/angas/nmcweather-go/config"
	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/database"
	"github.com/angas/nmcweather-go/nmc"
)

// A stored snapshot older than this is refreshed at startup.
const staleAfter = time.Hour

const saveTimeout = 10 * time.Second

type SnapshotStore interface {
	GetSnapshot(ctx context.Context, stationCode string) (database.SnapshotRow, error)
	SaveSnapshot(ctx context.Context, row database.SnapshotRow) error
}

type Refresher interface {
	Seed(s *nmc.Snapshot)
	Refresh(ctx context.Context) error
	Current() *nmc.Snapshot
}

func NewWeatherTask(logger *slog.Logger, db SnapshotStore, coord Refresher, stationCode string, cnfg config.AppConfigWeather) func() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	row, err := db.GetSnapshot(ctx, stationCode)
	if err != nil {
		logger.Warn("could not load stored snapshot", slog.Any("error", err))
	}
	if !row.IsZero() {
		coord.Seed(&row.Data)
	}

	if needImmediateUpdate(row, time.Now()) {
		logger.Info("need an immediate weather update")
		runWeatherTask(logger, db, coord, cnfg)
	} else {
		logger.Debug("no need for immediate weather update", slog.Time("fetchedAt", row.FetchedAt))
	}

	return func() {
		runWeatherTask(logger, db, coord, cnfg)
	}
}

func runWeatherTask(logger *slog.Logger, db SnapshotStore, coord Refresher, cnfg config.AppConfigWeather) {
	logger.Debug("running weather task...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cnfg.GetTimeoutSec())*time.Second)
	defer cancel()

	started := time.Now()
	err := coord.Refresh(ctx)
	if errors.Is(err, coordinator.ErrBusy) {
		fetchCycles.WithLabelValues("busy").Inc()
		logger.Info("weather update already in progress, skipping")
		return
	}
	fetchDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		fetchCycles.WithLabelValues("error").Inc()
		logger.Error("weather task error, keeping previous data", slog.Any("error", err))
		return
	}
	fetchCycles.WithLabelValues("ok").Inc()

	s := coord.Current()
	if err := saveSnapshot(db, s); err != nil {
		logger.Error("saving snapshot failed", slog.Any("error", err))
	}

	logger.Info("weather task done",
		slog.String("station", s.Station.Code),
		slog.Int("days", len(s.Daily)),
		slog.Int("images", len(s.Images)))
}

// saveSnapshot does not share the fetch deadline, a slow fetch still gets its
// result persisted.
func saveSnapshot(db SnapshotStore, s *nmc.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	return db.SaveSnapshot(ctx, database.SnapshotRow{
		StationCode: s.Station.Code,
		FetchedAt:   s.FetchedAt,
		Data:        *s,
	})
}

func needImmediateUpdate(row database.SnapshotRow, now time.Time) bool {
	return row.IsZero() || now.Sub(row.FetchedAt) > staleAfter
}
