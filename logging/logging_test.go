package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/angas/nmcweather-go/database"
)

type memStore struct {
	rows []database.LogEntryRow
}

func (s *memStore) SaveLogEntry(ctx context.Context, r database.LogEntryRow) error {
	s.rows = append(s.rows, r)
	return nil
}

func TestSQLiteHandlerAttrs(t *testing.T) {
	tests := []struct {
		name     string
		format   LogAttrFormat
		expected string
	}{
		{"text", LogAttrFormatText, "module=nmc; station=58367; req.url=http://x/?a\\=1"},
		{"json", LogAttrFormatJSON, `[{"module":"nmc"},{"station":"58367"},{"req.url":"http://x/?a=1"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memStore{}
			logger := slog.New(NewSQLiteHandler(store, slog.LevelInfo, tt.format)).With("module", "nmc")

			logger.Debug("dropped")
			logger.Info("fetching", "station", "58367", slog.Group("req", slog.String("url", "http://x/?a=1")))

			if len(store.rows) != 1 {
				t.Fatalf("expected 1 row, got %d", len(store.rows))
			}
			r := store.rows[0]
			if r.Message != "fetching" || r.Level != int(slog.LevelInfo) {
				t.Errorf("unexpected row %+v", r)
			}
			if r.Attrs != tt.expected {
				t.Errorf("Attrs expected %q, got %q", tt.expected, r.Attrs)
			}
		})
	}
}

func TestMultiHandlerRespectsLevels(t *testing.T) {
	debug := &memStore{}
	warn := &memStore{}
	logger := slog.New(NewMultiHandler(
		NewSQLiteHandler(debug, slog.LevelDebug, LogAttrFormatText),
		NewSQLiteHandler(warn, slog.LevelWarn, LogAttrFormatText)))

	logger.Debug("d")
	logger.Warn("w")

	if len(debug.rows) != 2 {
		t.Errorf("debug handler expected 2 rows, got %d", len(debug.rows))
	}
	if len(warn.rows) != 1 || warn.rows[0].Message != "w" {
		t.Errorf("warn handler expected only the warning, got %+v", warn.rows)
	}
}

func TestLevelFromString(t *testing.T) {
	str := func(s string) *string { return &s }
	tests := []struct {
		input    *string
		expected slog.Level
	}{
		{nil, slog.LevelInfo},
		{str("debug"), slog.LevelDebug},
		{str("WARN"), slog.LevelWarn},
		{str("error"), slog.LevelError},
		{str("verbose"), slog.LevelInfo},
	}

	for _, tt := range tests {
		if l := LevelFromString(tt.input); l != tt.expected {
			t.Errorf("LevelFromString(%v) expected %v, got %v", tt.input, tt.expected, l)
		}
	}
}
