package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angas/nmcweather-go/nmc"
)

type SnapshotRow struct {
	StationCode string
	FetchedAt   time.Time
	Data        nmc.Snapshot
}

func (r SnapshotRow) IsZero() bool {
	return r.StationCode == ""
}

// SaveSnapshot keeps only the latest snapshot per station.
func (d *Database) SaveSnapshot(ctx context.Context, row SnapshotRow) error {
	d.logger.Debug("saving snapshot", "station", row.StationCode)

	data, err := json.Marshal(row.Data)
	if err != nil {
		return fmt.Errorf("marshalling snapshot to JSON: %w", err)
	}

	_, err = d.write.ExecContext(ctx, `
		INSERT INTO snapshot (station_code, fetched_at, data)
		VALUES (?, ?, ?)
		ON CONFLICT(station_code) DO UPDATE SET
			fetched_at = excluded.fetched_at,
			data = excluded.data`,
		row.StationCode,
		row.FetchedAt.UTC().Format(time.RFC3339),
		string(data),
	)
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}

	return nil
}

func (d *Database) GetSnapshot(ctx context.Context, stationCode string) (SnapshotRow, error) {
	row := d.read.QueryRowContext(ctx, `
		SELECT station_code, fetched_at, data
		FROM snapshot
		WHERE station_code = ?`,
		stationCode)

	var ts, jsonData string
	var sr SnapshotRow
	err := row.Scan(&sr.StationCode, &ts, &jsonData)
	if err == sql.ErrNoRows {
		return SnapshotRow{}, nil
	}
	if err != nil {
		return SnapshotRow{}, fmt.Errorf("fetching snapshot for %s: %w", stationCode, err)
	}

	sr.FetchedAt, err = time.Parse(time.RFC3339, ts)
	if err != nil {
		return SnapshotRow{}, fmt.Errorf("parsing snapshot timestamp: %w", err)
	}

	err = json.Unmarshal([]byte(jsonData), &sr.Data)
	if err != nil {
		return SnapshotRow{}, fmt.Errorf("unmarshalling snapshot from JSON: %w", err)
	}

	return sr, nil
}

// PurgeSnapshots drops rows for stations other than the configured one.
func (d *Database) PurgeSnapshots(ctx context.Context, keepStation string) error {
	d.logger.Debug("purging snapshots", "keep", keepStation)
	_, err := d.write.ExecContext(ctx, `DELETE FROM snapshot WHERE station_code <> ?`, keepStation)
	if err != nil {
		return fmt.Errorf("purging snapshots: %w", err)
	}
	return nil
}
