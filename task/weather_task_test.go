package task

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/angas/nmcweather-go/config"
	"github.com/angas/nmcweather-go/coordinator"
	"github.com/angas/nmcweather-go/database"
	"github.com/angas/nmcweather-go/nmc"
)

type memStore struct {
	row     database.SnapshotRow
	saves   int
	saveErr error
}

func (s *memStore) GetSnapshot(ctx context.Context, stationCode string) (database.SnapshotRow, error) {
	if s.row.StationCode != stationCode {
		return database.SnapshotRow{}, nil
	}
	return s.row, nil
}

func (s *memStore) SaveSnapshot(ctx context.Context, row database.SnapshotRow) error {
	s.saveErr = ctx.Err()
	s.row = row
	s.saves++
	return s.saveErr
}

type fakeFetcher struct {
	calls int
	err   error
}

func (f *fakeFetcher) Fetch(ctx context.Context) (*nmc.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &nmc.Snapshot{
		Station:   nmc.StationInfo{Code: "58367"},
		FetchedAt: time.Now(),
	}, nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNeedImmediateUpdate(t *testing.T) {
	now := time.Date(2025, 5, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		row      database.SnapshotRow
		expected bool
	}{
		{"nothing stored", database.SnapshotRow{}, true},
		{"fresh", database.SnapshotRow{StationCode: "58367", FetchedAt: now.Add(-10 * time.Minute)}, false},
		{"stale", database.SnapshotRow{StationCode: "58367", FetchedAt: now.Add(-2 * time.Hour)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needImmediateUpdate(tt.row, now); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestWeatherTaskRunsAtStartupWithoutStoredSnapshot(t *testing.T) {
	store := &memStore{}
	fetcher := &fakeFetcher{}
	coord := coordinator.New(fetcher)

	task := NewWeatherTask(quietLogger(), store, coord, "58367", config.AppConfigWeather{})
	if fetcher.calls != 1 || store.saves != 1 {
		t.Fatalf("expected one immediate fetch and save, got %d fetches, %d saves", fetcher.calls, store.saves)
	}

	task()
	if fetcher.calls != 2 || store.saves != 2 {
		t.Errorf("expected second fetch and save, got %d fetches, %d saves", fetcher.calls, store.saves)
	}
}

func TestWeatherTaskSeedsFreshSnapshot(t *testing.T) {
	stored := nmc.Snapshot{Station: nmc.StationInfo{Code: "58367", City: "徐家汇"}}
	store := &memStore{row: database.SnapshotRow{StationCode: "58367", FetchedAt: time.Now(), Data: stored}}
	fetcher := &fakeFetcher{}
	coord := coordinator.New(fetcher)

	NewWeatherTask(quietLogger(), store, coord, "58367", config.AppConfigWeather{})

	if fetcher.calls != 0 {
		t.Errorf("fresh snapshot should not trigger a fetch, got %d", fetcher.calls)
	}
	if s := coord.Current(); s == nil || s.Station.City != "徐家汇" {
		t.Errorf("coordinator should be seeded with stored snapshot, got %+v", s)
	}
}

func TestWeatherTaskFailureKeepsStoredSnapshot(t *testing.T) {
	store := &memStore{}
	fetcher := &fakeFetcher{err: errors.New("boom")}
	coord := coordinator.New(fetcher)

	task := NewWeatherTask(quietLogger(), store, coord, "58367", config.AppConfigWeather{})
	task()

	if store.saves != 0 {
		t.Errorf("failed cycles should not save, got %d saves", store.saves)
	}
	if coord.Current() != nil {
		t.Errorf("no snapshot expected after failures")
	}
	if coord.Status().LastError == nil {
		t.Errorf("status should carry the error")
	}
}

// slowFetcher returns only after the fetch deadline has passed.
type slowFetcher struct{}

func (slowFetcher) Fetch(ctx context.Context) (*nmc.Snapshot, error) {
	<-ctx.Done()
	return &nmc.Snapshot{Station: nmc.StationInfo{Code: "58367"}, FetchedAt: time.Now()}, nil
}

func TestWeatherTaskSavesAfterSlowFetch(t *testing.T) {
	store := &memStore{row: database.SnapshotRow{StationCode: "58367", FetchedAt: time.Now()}}
	coord := coordinator.New(slowFetcher{})
	timeout := 1

	task := NewWeatherTask(quietLogger(), store, coord, "58367", config.AppConfigWeather{TimeoutSec: &timeout})
	task()

	if store.saves != 1 {
		t.Fatalf("expected one save, got %d", store.saves)
	}
	if store.saveErr != nil {
		t.Errorf("save ran with an expired context: %v", store.saveErr)
	}
}
