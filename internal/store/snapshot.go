package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofrs/flock"

	"poemcoder/internal/models"
)

const lockRetryDelay = 50 * time.Millisecond

// SnapshotColumns is the CSV header, matching the JSONL keys.
var SnapshotColumns = []string{
	"timestamp_iso", "coder_id", "url", "poem_uuid", "title", "author", "tags_joined",
	"sentiment", "notes", "is_complete", "html_sha1", "extraction_ok", "error",
}

// RebuildSnapshot regenerates the CSV snapshot from a full replay of the log.
// The log is read while the lock is held, so the last writer to get the lock
// always sees every line appended before it.
func (s *Store) RebuildSnapshot() error {
	if err := s.ensureDir(); err != nil {
		return &StorageError{Op: "mkdir", Path: s.dir, Err: err}
	}

	lock := flock.New(s.snapshotPath + ".lock")

	if err := s.acquire(lock); err != nil {
		return &StorageError{Op: "lock", Path: lock.Path(), Err: err}
	}

	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("failed to release snapshot lock", "error", err)
		}
	}()

	records, err := s.History()
	if err != nil {
		return err
	}

	if err := writeSnapshot(s.snapshotPath, Snapshot(records)); err != nil {
		return &StorageError{Op: "snapshot", Path: s.snapshotPath, Err: err}
	}

	return nil
}

func (s *Store) acquire(lock *flock.Flock) error {
	ok, err := lock.TryLock()
	if err != nil {
		return err
	}

	if ok {
		return nil
	}

	if s.lockTimeout <= 0 {
		return ErrSnapshotLocked
	}

	s.logger.Debug("waiting for snapshot lock", "path", lock.Path(), "timeout", s.lockTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), s.lockTimeout)
	defer cancel()

	ok, err = lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil && ctx.Err() == nil {
		return err
	}

	if !ok {
		return ErrSnapshotLocked
	}

	return nil
}

// writeSnapshot writes rows to a temp file in the same directory and renames it over path.
func writeSnapshot(path string, rows []models.CodingRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*.csv")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	w := csv.NewWriter(tmp)

	if err := w.Write(SnapshotColumns); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}

	for _, record := range rows {
		if err := w.Write(snapshotRow(record)); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush snapshot: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync snapshot: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	return nil
}

func snapshotRow(r models.CodingRecord) []string {
	return []string{
		r.TimestampISO,
		r.CoderID,
		r.URL,
		r.UUID(),
		r.Title,
		r.Author,
		r.TagsJoined,
		string(r.Sentiment),
		r.Notes,
		strconv.FormatBool(r.IsComplete),
		r.HTMLSHA1,
		strconv.FormatBool(r.ExtractionOK),
		r.ErrorMessage(),
	}
}

// ReadSnapshot parses a snapshot file back into records.
func ReadSnapshot(path string) ([]models.CodingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}

	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]models.CodingRecord, 0, len(rows)-1)

	for _, row := range rows[1:] {
		if len(row) != len(SnapshotColumns) {
			return nil, &StorageError{Op: "read", Path: path, Err: fmt.Errorf("row has %d columns, want %d", len(row), len(SnapshotColumns))}
		}

		complete, _ := strconv.ParseBool(row[9])
		extractionOK, _ := strconv.ParseBool(row[11])

		records = append(records, models.CodingRecord{
			TimestampISO: row[0],
			CoderID:      row[1],
			URL:          row[2],
			PoemUUID:     models.OptionalString(row[3]),
			Title:        row[4],
			Author:       row[5],
			TagsJoined:   row[6],
			Sentiment:    models.Sentiment(row[7]),
			Notes:        row[8],
			IsComplete:   complete,
			HTMLSHA1:     row[10],
			ExtractionOK: extractionOK,
			Error:        models.OptionalString(row[12]),
		})
	}

	return records, nil
}
