package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"poemcoder/internal/models"
)

// Log is the decoded content of the coding log.
type Log struct {
	Records []models.CodingRecord
	// Malformed counts non-blank lines that could not be decoded.
	Malformed int
	// MalformedLines holds the 1-based line numbers of those lines.
	MalformedLines []int
}

// logLine accepts the legacy "tags" array next to the current columns.
type logLine struct {
	models.CodingRecord
	Tags []string `json:"tags"`
}

// DecodeLog reads JSONL records. Malformed lines are skipped and counted.
func DecodeLog(r io.Reader) (Log, error) {
	var out Log

	reader := bufio.NewReader(r)

	for lineNo := 1; ; lineNo++ {
		raw, err := reader.ReadBytes('\n')
		if len(bytes.TrimSpace(raw)) > 0 {
			if record, ok := decodeLine(raw); ok {
				out.Records = append(out.Records, record)
			} else {
				out.Malformed++
				out.MalformedLines = append(out.MalformedLines, lineNo)
			}
		}

		if errors.Is(err, io.EOF) {
			return out, nil
		}

		if err != nil {
			return out, fmt.Errorf("read log line %d: %w", lineNo, err)
		}
	}
}

func decodeLine(raw []byte) (models.CodingRecord, bool) {
	var line logLine
	if err := json.Unmarshal(raw, &line); err != nil {
		return models.CodingRecord{}, false
	}

	record := line.CodingRecord
	if strings.TrimSpace(record.CoderID) == "" || strings.TrimSpace(record.URL) == "" {
		return models.CodingRecord{}, false
	}

	if record.TagsJoined == "" && len(line.Tags) > 0 {
		record.TagsJoined = models.JoinTags(line.Tags)
	}

	return record, true
}

// Replay materializes the latest record per (coder, url). The record with the
// greatest timestamp wins; equal timestamps go to the later log position.
func Replay(records []models.CodingRecord) map[models.RecordKey]models.CodingRecord {
	latest := make(map[models.RecordKey]models.CodingRecord)

	for _, record := range records {
		key := record.Key()

		current, ok := latest[key]
		if !ok || compareTimestamps(record.TimestampISO, current.TimestampISO) >= 0 {
			latest[key] = record
		}
	}

	return latest
}

// Snapshot returns the replayed records ordered by coder, then by first
// appearance of the url in the log.
func Snapshot(records []models.CodingRecord) []models.CodingRecord {
	latest := Replay(records)

	first := make(map[models.RecordKey]int, len(latest))
	keys := make([]models.RecordKey, 0, len(latest))

	for i, record := range records {
		key := record.Key()
		if _, seen := first[key]; !seen {
			first[key] = i
			keys = append(keys, key)
		}
	}

	slices.SortStableFunc(keys, func(a, b models.RecordKey) int {
		if c := strings.Compare(a.CoderID, b.CoderID); c != 0 {
			return c
		}

		return first[a] - first[b]
	})

	rows := make([]models.CodingRecord, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, latest[key])
	}

	return rows
}

// compareTimestamps compares RFC 3339 instants, falling back to lexical order
// when either side does not parse.
func compareTimestamps(a, b string) int {
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)

	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}

	return ta.Compare(tb)
}
