package task

import (
	"context"
	"log/slog"

	"github.com/angas/nmcweather-go/config"
	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/database"
	"github.com/robfig/cron/v3"
)

type Tasks struct {
	cron            *cron.Cron
	cnfg            *config.AppConfig
	WeatherTask     func()
	MaintenanceTask func()
}

func NewTasks(db *database.Database, coord *coordinator.Coordinator, cnfg *config.AppConfig) *Tasks {
	logger := slog.Default().With("module", "tasks")
	cl := cronLogger{logger: logger}
	return &Tasks{
		cron:            cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		cnfg:            cnfg,
		WeatherTask:     NewWeatherTask(logger.With(slog.String("task", "weather")), db, coord, cnfg.Station.Code, cnfg.Weather),
		MaintenanceTask: NewMaintenanceTask(logger.With(slog.String("task", "maintenance")), db, cnfg),
	}
}

func (t *Tasks) Run() {
	_, err := t.cron.AddFunc(t.cnfg.Weather.GetRunAt(), t.WeatherTask)
	if err != nil {
		panic(err)
	}
	_, err = t.cron.AddFunc("30 2 * * *", t.MaintenanceTask)
	if err != nil {
		panic(err)
	}
	t.cron.Start()
}

func (t *Tasks) Stop() context.Context {
	return t.cron.Stop()
}

// cronLogger routes the scheduler's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, slog.Any("error", err))...)
}
