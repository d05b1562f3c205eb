package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/angas/nmcweather-go/nmc"
	"github.com/lmittmann/tint"
)

// Fetches one snapshot and prints it as JSON, hourly rows included.
func main() {
	station := flag.String("station", "58367", "NMC station code")
	images := flag.String("images", "", "comma separated image kinds, e.g. radar,precipitation24")
	baseURL := flag.String("base-url", nmc.DefaultBaseURL, "NMC base url")
	timeout := flag.Duration("timeout", 30*time.Second, "fetch timeout")
	flag.Parse()

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339Nano,
		}),
	))

	var kinds []nmc.ImageKind
	for _, k := range strings.Split(*images, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds = append(kinds, nmc.ImageKind(k))
		}
	}

	client, err := nmc.New(*baseURL, "")
	if err != nil {
		panic(err)
	}
	fetcher, err := nmc.NewFetcher(client, *station, kinds)
	if err != nil {
		panic(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	s, err := fetcher.Fetch(ctx)
	if err != nil {
		slog.Error("fetch failed", slog.Any("error", err))
		os.Exit(1)
	}

	hourly, err := s.Hourly(time.Now())
	if err != nil {
		slog.Warn("hourly forecast unavailable", slog.Any("error", err))
	}

	out := struct {
		*nmc.Snapshot
		HourlyMarkup string               `json:"hourly_markup,omitempty"`
		Hourly       []nmc.HourlyForecast `json:"hourly"`
	}{Snapshot: s, Hourly: hourly}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		panic(err)
	}
}
