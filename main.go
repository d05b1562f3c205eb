package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/angas/nmcweather-go/config"
	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/database"
	"github.com/angas/nmcweather-go/hass"
	"github.com/angas/nmcweather-go/hours"
	"github.com/angas/nmcweather-go/logging"
	"github.com/angas/nmcweather-go/nmc"
	"github.com/angas/nmcweather-go/task"
	"github.com/angas/nmcweather-go/www"
	"github.com/lmittmann/tint"
)

var Version = "?.?.?"

func main() {
	defer func() {
		if err := recover(); err != nil {
			exitWithError(slog.Default(), fmt.Errorf("application panicked: %v", err))
		} else {
			slog.Default().Info("application is shutting down...")
		}
	}()

	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cnfg, err := config.Load(*configPath)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := hours.SetGuiTimezone(cnfg.Gui.GetTimezone()); err != nil {
		panic(fmt.Sprintf("failed to set GUI timezone: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consoleHandler := tint.NewHandler(os.Stdout, &tint.Options{
		Level:      cnfg.Logging.GetConsoleLevel(),
		TimeFormat: time.RFC3339,
	})
	slog.New(consoleHandler).Debug("nmcweather is starting...", slog.String("version", Version))

	db, err := database.New(ctx, cnfg.Database.Path)
	if err != nil {
		panic(fmt.Sprintf("failed to connect to database: %v", err))
	}
	defer db.Close()

	logger := slog.New(logging.NewMultiHandler(
		consoleHandler,
		logging.NewSQLiteHandler(db, cnfg.Logging.GetDbLevel(), cnfg.Logging.GetDbAttrsFormat())))
	slog.SetDefault(logger)

	// Now we can use the logger to log database operations into the database itself
	db.SetLogger(logger.With("module", "database"))

	client, err := nmc.New(cnfg.Nmc.GetBaseURL(), cnfg.Nmc.GetUserAgent())
	if err != nil {
		panic(fmt.Sprintf("failed to create nmc client: %v", err))
	}

	fetcher, err := nmc.NewFetcher(client, cnfg.Station.Code, cnfg.Station.ImageKinds())
	if err != nil {
		panic(fmt.Sprintf("failed to create fetcher: %v", err))
	}

	coord := coordinator.New(fetcher)

	var bridge *hass.Bridge
	if cnfg.Mqtt.Enabled && !isDevMode() {
		bridge = hass.New(cnfg.Mqtt, cnfg.Station)
		coord.OnUpdate(bridge.HandleUpdate)
	} else {
		logger.Info("mqtt bridge disabled")
	}

	// The weather task seeds the coordinator from the database and may fetch
	// right away, the bridge listener is registered before that.
	tasks := task.NewTasks(db, coord, cnfg)

	if bridge != nil {
		bridge.Seed(coord.Current())
		if err := bridge.Connect(); err != nil {
			panic(fmt.Sprintf("mqtt connection error: %v", err))
		}
		defer bridge.Disconnect()
	}

	if isDevMode() {
		logger.Info("dev mode, skipping task scheduling")
	} else {
		tasks.Run()
		defer tasks.Stop()
	}

	server, err := www.NewServer(db, tasks, coord, client, cnfg, Version)
	if err != nil {
		panic(fmt.Sprintf("failed to create web server: %v", err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-ctx.Done():
		case sig := <-sigCh:
			logger.Info("received signal", slog.Any("signal", sig))
			cancel()
		}
	}()

	server.Run(ctx)
}

func isDevMode() bool {
	return strings.EqualFold(os.Getenv("APP_ENV"), "development")
}

func exitWithError(logger *slog.Logger, err error) {
	if err != nil {
		logger.Error("application shutting down with error", slog.Any("error", err))
	}
	if syncer, ok := logger.Handler().(interface{ Sync() error }); ok {
		if syncErr := syncer.Sync(); syncErr != nil {
			logger.Error("failed to flush logger", slog.Any("error", syncErr))
		}
	}

	time.Sleep(2 * time.Second)
	os.Exit(1)
}
