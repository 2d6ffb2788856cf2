// Package store persists coding records in an append-only JSONL log with a
// derived latest-state CSV snapshot.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"poemcoder/internal/config"
	"poemcoder/internal/logger"
	"poemcoder/internal/models"
)

// Store owns the coding log and its snapshot.
type Store struct {
	dir          string
	logPath      string
	snapshotPath string
	lockTimeout  time.Duration
	logger       *logger.Logger

	// mu serialises appends from one process; other processes rely on O_APPEND.
	mu sync.Mutex
}

// New creates a store from configuration. Files are created on first append.
func New(cfg config.StoreConfig, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}

	return &Store{
		dir:          cfg.Dir,
		logPath:      cfg.LogPath(),
		snapshotPath: cfg.SnapshotPath(),
		lockTimeout:  cfg.LockTimeout(),
		logger:       log,
	}
}

// LogPath returns the JSONL log location.
func (s *Store) LogPath() string {
	return s.logPath
}

// SnapshotPath returns the CSV snapshot location.
func (s *Store) SnapshotPath() string {
	return s.snapshotPath
}

// Append writes record as one line and regenerates the snapshot. A failed
// write is retried once. Snapshot failures are logged, never returned.
func (s *Store) Append(record models.CodingRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return &StorageError{Op: "encode", Path: s.logPath, Err: err}
	}

	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: s.dir, Err: err}
	}

	written, err := s.appendLine(line)
	if err != nil && !written {
		s.logger.Warn("append failed, retrying once", "path", s.logPath, "error", err)

		written, err = s.appendLine(line)
	}

	if err != nil {
		op := "append"
		if written {
			op = "sync"
		}

		return &StorageError{Op: op, Path: s.logPath, Err: err}
	}

	s.logger.Debug("record appended", "coder", record.CoderID, "url", record.URL, "complete", record.IsComplete)

	if err := s.RebuildSnapshot(); err != nil {
		s.logger.Warn("snapshot regeneration failed, log is intact", "path", s.snapshotPath, "error", err)
	}

	return nil
}

// appendLine performs one O_APPEND write. written reports whether the full
// line reached the file, in which case a retry would duplicate it.
func (s *Store) appendLine(line []byte) (written bool, err error) {
	f, err := os.OpenFile(s.logPath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false, fmt.Errorf("open log: %w", err)
	}

	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close log: %w", closeErr)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("stat log: %w", err)
	}

	before := info.Size()

	// a crash may have left a torn last line; start ours on a fresh one
	if before > 0 {
		last := make([]byte, 1)
		if _, err := f.ReadAt(last, before-1); err == nil && last[0] != '\n' {
			line = append([]byte{'\n'}, line...)
		}
	}

	n, err := f.Write(line)
	if err == nil && n < len(line) {
		err = io.ErrShortWrite
	}

	if err != nil {
		if n > 0 {
			s.rollback(f, before, int64(n))
		}

		return false, fmt.Errorf("write log: %w", err)
	}

	if err := f.Sync(); err != nil {
		return true, fmt.Errorf("sync log: %w", err)
	}

	return true, nil
}

// rollback truncates a partial line unless another writer appended after it.
func (s *Store) rollback(f *os.File, before, n int64) {
	info, err := f.Stat()
	if err != nil {
		s.logger.Error("cannot inspect log after partial write", "error", err)
		return
	}

	if info.Size() != before+n {
		s.logger.Error("partial line left in log, another writer appended after it",
			"path", s.logPath, "offset", before)

		return
	}

	if err := f.Truncate(before); err != nil {
		s.logger.Error("failed to truncate partial line", "path", s.logPath, "error", err)
	}
}

// Load decodes the whole log. A missing log is empty.
func (s *Store) Load() (Log, error) {
	f, err := os.Open(s.logPath)
	if errors.Is(err, os.ErrNotExist) {
		return Log{}, nil
	}

	if err != nil {
		return Log{}, &StorageError{Op: "open", Path: s.logPath, Err: err}
	}
	defer f.Close()

	l, err := DecodeLog(f)
	if err != nil {
		return Log{}, &StorageError{Op: "read", Path: s.logPath, Err: err}
	}

	if l.Malformed > 0 {
		s.logger.Warn("skipped malformed log lines", "path", s.logPath, "count", l.Malformed, "lines", l.MalformedLines)
	}

	return l, nil
}

// History returns every record in log order.
func (s *Store) History() ([]models.CodingRecord, error) {
	l, err := s.Load()
	if err != nil {
		return nil, err
	}

	return l.Records, nil
}

// Latest returns the latest record per (coder, url).
func (s *Store) Latest() (map[models.RecordKey]models.CodingRecord, error) {
	records, err := s.History()
	if err != nil {
		return nil, err
	}

	return Replay(records), nil
}

// LatestFor returns the latest record of coderID for url.
func (s *Store) LatestFor(coderID, url string) (models.CodingRecord, bool, error) {
	latest, err := s.Latest()
	if err != nil {
		return models.CodingRecord{}, false, err
	}

	record, ok := latest[models.RecordKey{CoderID: coderID, URL: url}]

	return record, ok, nil
}

// LatestForURL returns the newest record for url across all coders.
func (s *Store) LatestForURL(url string) (models.CodingRecord, bool, error) {
	records, err := s.History()
	if err != nil {
		return models.CodingRecord{}, false, err
	}

	var (
		best  models.CodingRecord
		found bool
	)

	for _, record := range records {
		if record.URL != url {
			continue
		}

		if !found || compareTimestamps(record.TimestampISO, best.TimestampISO) >= 0 {
			best = record
			found = true
		}
	}

	return best, found, nil
}

// Summary describes the whole log.
type Summary struct {
	TotalRecords int
	UniqueURLs   int
	CompleteURLs int
	Coders       []string
	Malformed    int
}

// Summary computes log-wide statistics. A URL is complete when any coder's
// latest record for it is complete.
func (s *Store) Summary() (Summary, error) {
	l, err := s.Load()
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{TotalRecords: len(l.Records), Malformed: l.Malformed}

	urls := make(map[string]bool)
	coders := make(map[string]bool)

	for _, record := range Snapshot(l.Records) {
		if !coders[record.CoderID] {
			coders[record.CoderID] = true
			sum.Coders = append(sum.Coders, record.CoderID)
		}

		urls[record.URL] = urls[record.URL] || record.IsComplete
	}

	sum.UniqueURLs = len(urls)

	for _, complete := range urls {
		if complete {
			sum.CompleteURLs++
		}
	}

	return sum, nil
}

// ensureDir creates the store directory.
func (s *Store) ensureDir() error {
	return os.MkdirAll(filepath.Clean(s.dir), 0o755)
}
