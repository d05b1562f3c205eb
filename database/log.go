package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

const defaultLogPageSize = 25

// LogEntryRow is a record written by the SQLite log handler. Level holds the
// numeric slog level so entries can be filtered in SQL.
type LogEntryRow struct {
	Timestamp time.Time
	Level     int
	Message   string
	Attrs     string
}

func (r LogEntryRow) LevelName() string {
	return slog.Level(r.Level).String()
}

// LogQuery selects a page of entries at or above MinLevel, newest first.
// Pages start at 1.
type LogQuery struct {
	MinLevel slog.Level
	Page     int
	PageSize int
}

func (q LogQuery) limits() (limit, offset int) {
	limit = q.PageSize
	if limit < 1 {
		limit = defaultLogPageSize
	}
	page := max(q.Page, 1)
	return limit, (page - 1) * limit
}

func (d *Database) SaveLogEntry(ctx context.Context, r LogEntryRow) error {
	if _, err := d.write.ExecContext(ctx,
		"INSERT INTO log (timestamp, level, message, attrs) VALUES (?, ?, ?, ?)",
		r.Timestamp.UTC().Format(time.RFC3339Nano), r.Level, r.Message, r.Attrs); err != nil {
		return fmt.Errorf("insert log entry: %w", err)
	}
	return nil
}

func (d *Database) GetLogEntries(ctx context.Context, q LogQuery) ([]LogEntryRow, error) {
	limit, offset := q.limits()
	rows, err := d.read.QueryContext(ctx, `
		SELECT timestamp, level, message, attrs FROM log
		WHERE level >= ?
		ORDER BY id DESC
		LIMIT ? OFFSET ?`,
		int(q.MinLevel), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]LogEntryRow, 0, limit)
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log entries: %w", err)
	}
	return entries, nil
}

func scanLogEntry(rows *sql.Rows) (LogEntryRow, error) {
	var (
		e  LogEntryRow
		ts string
	)
	if err := rows.Scan(&ts, &e.Level, &e.Message, &e.Attrs); err != nil {
		return e, fmt.Errorf("scan log entry: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return e, fmt.Errorf("log entry timestamp %q: %w", ts, err)
	}
	e.Timestamp = t
	return e, nil
}

// PurgeLog keeps the newest entries and returns how many were deleted.
// A keep below 1 leaves the table alone.
func (d *Database) PurgeLog(ctx context.Context, keep int) (int64, error) {
	if keep < 1 {
		return 0, nil
	}
	res, err := d.write.ExecContext(ctx, `
		DELETE FROM log
		WHERE id < (SELECT MIN(id) FROM (SELECT id FROM log ORDER BY id DESC LIMIT ?))`, keep)
	if err != nil {
		return 0, fmt.Errorf("purge log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge log: %w", err)
	}
	d.logger.Debug("log purged", slog.Int64("deleted", n), slog.Int("kept", keep))
	return n, nil
}
