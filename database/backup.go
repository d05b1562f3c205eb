package database

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	backupTimeLayout = "20060102_150405"
	backupSuffix     = "_nmcweather.db.zip"
)

func (d *Database) backupDir() string {
	return filepath.Join(filepath.Dir(d.path), "backups")
}

func backupName(t time.Time) string {
	return t.Format(backupTimeLayout) + backupSuffix
}

// parseBackupTime reports when a backup was taken, ok is false for files not
// written by Backup.
func parseBackupTime(name string) (t time.Time, ok bool) {
	stamp, found := strings.CutSuffix(name, backupSuffix)
	if !found {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(backupTimeLayout, stamp, time.Local)
	return t, err == nil
}

// Backup writes a compressed copy of the database next to it and returns the
// archive path.
func (d *Database) Backup(ctx context.Context) (string, error) {
	dir := d.backupDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	archive := filepath.Join(dir, backupName(time.Now()))
	snapshot := strings.TrimSuffix(archive, ".zip") + ".tmp"
	defer os.Remove(snapshot)

	if _, err := d.write.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", snapshot, err)
	}
	if err := zipFile(archive, snapshot, filepath.Base(d.path)); err != nil {
		os.Remove(archive)
		return "", err
	}

	d.logger.Info("database backed up", slog.String("archive", archive))
	return archive, nil
}

// zipFile stores src as a single deflated entry of a new archive at dst.
func zipFile(dst, src, entry string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("zip header for %s: %w", src, err)
	}
	hdr.Name = entry
	hdr.Method = zip.Deflate

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", dst, cerr)
		}
	}()

	zw := zip.NewWriter(out)
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("zip entry %s: %w", entry, err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("compress %s: %w", src, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish %s: %w", dst, err)
	}
	return nil
}

// PurgeBackups deletes archives older than retentionDays and returns how many
// were removed. Other files in the backup directory are left alone.
func (d *Database) PurgeBackups(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays < 1 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	dir := d.backupDir()
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("list backups: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		taken, ok := parseBackupTime(e.Name())
		if e.IsDir() || !ok || !taken.Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return removed, fmt.Errorf("remove backup %s: %w", e.Name(), err)
		}
		removed++
	}

	d.logger.Info("old backups purged", slog.Int("removed", removed), slog.Time("cutoff", cutoff))
	return removed, nil
}
