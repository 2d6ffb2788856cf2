// Package progress derives per-coder resume positions and statistics from the record store.
package progress

import (
	"errors"
	"fmt"
	"strings"

	"poemcoder/internal/logger"
	"poemcoder/internal/models"
)

// ErrMissingCoderID is returned for empty or whitespace-only coder ids.
var ErrMissingCoderID = errors.New("coder id is required")

// RecordSource provides the latest record per (coder, url). *store.Store satisfies it.
type RecordSource interface {
	Latest() (map[models.RecordKey]models.CodingRecord, error)
}

// Status is the coding state of one poem for one coder.
type Status int

// Status values.
const (
	NotStarted Status = iota
	Incomplete
	Complete
)

func (s Status) String() string {
	switch s {
	case Complete:
		return "complete"
	case Incomplete:
		return "in progress"
	default:
		return "not started"
	}
}

// Stats counts worklist entries by status.
type Stats struct {
	Complete   int
	Incomplete int
	NotStarted int
}

// Total returns the number of worklist entries counted.
func (s Stats) Total() int {
	return s.Complete + s.Incomplete + s.NotStarted
}

// Percent returns the share of complete entries, 0 for an empty worklist.
func (s Stats) Percent() float64 {
	if s.Total() == 0 {
		return 0
	}

	return float64(s.Complete) * 100 / float64(s.Total())
}

func (s Stats) String() string {
	return fmt.Sprintf("%d complete, %d in progress, %d not started (%.1f%%)",
		s.Complete, s.Incomplete, s.NotStarted, s.Percent())
}

// Row is the progress of one worklist entry.
type Row struct {
	Index  int
	Ref    models.PoemReference
	Status Status
	// Latest is the coder's latest record, nil when not started.
	Latest *models.CodingRecord
}

// Tracker answers progress questions. Every call reads the store afresh.
type Tracker struct {
	records RecordSource
	logger  *logger.Logger
}

// NewTracker creates a tracker over src.
func NewTracker(src RecordSource, log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}

	return &Tracker{records: src, logger: log}
}

// NextPoem returns the index of the first entry the coder has not completed.
// found is false when every entry is complete.
func (t *Tracker) NextPoem(coderID string, worklist []models.PoemReference) (int, bool, error) {
	rows, err := t.Rows(coderID, worklist)
	if err != nil {
		return 0, false, err
	}

	for _, row := range rows {
		if row.Status != Complete {
			return row.Index, true, nil
		}
	}

	return len(worklist), false, nil
}

// Stats counts the coder's progress over worklist.
func (t *Tracker) Stats(coderID string, worklist []models.PoemReference) (Stats, error) {
	rows, err := t.Rows(coderID, worklist)
	if err != nil {
		return Stats{}, err
	}

	var stats Stats

	for _, row := range rows {
		switch row.Status {
		case Complete:
			stats.Complete++
		case Incomplete:
			stats.Incomplete++
		default:
			stats.NotStarted++
		}
	}

	return stats, nil
}

// Rows returns the status of every worklist entry for the coder.
func (t *Tracker) Rows(coderID string, worklist []models.PoemReference) ([]Row, error) {
	coderID = strings.TrimSpace(coderID)
	if coderID == "" {
		return nil, ErrMissingCoderID
	}

	latest, err := t.records.Latest()
	if err != nil {
		return nil, fmt.Errorf("failed to read coding records: %w", err)
	}

	rows := make([]Row, len(worklist))

	for i, ref := range worklist {
		row := Row{Index: i, Ref: ref}

		if record, ok := latest[models.RecordKey{CoderID: coderID, URL: ref.URL}]; ok {
			row.Latest = &record
			row.Status = Incomplete

			if record.IsComplete {
				row.Status = Complete
			}
		}

		rows[i] = row
	}

	return rows, nil
}

// Resume moves the cursor to the coder's next unfinished poem, or past the
// end when all are complete.
func (t *Tracker) Resume(sess models.SessionContext) (models.SessionContext, error) {
	idx, found, err := t.NextPoem(sess.CoderID, sess.Worklist)
	if err != nil {
		return sess, err
	}

	sess.CoderID = strings.TrimSpace(sess.CoderID)
	sess.Cursor = idx

	t.logger.Debug("session resumed", "session", sess.SessionID, "coder", sess.CoderID, "cursor", idx, "done", !found)

	return sess, nil
}
