// Package worklist resolves an input table into the ordered, de-duplicated
// list of poems a coder works through.
package worklist

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"poemcoder/internal/logger"
	"poemcoder/internal/models"
	"poemcoder/pkg/utils"
)

// Loader errors.
var (
	ErrNoURLColumn       = errors.New("no recognized URL column")
	ErrUnsupportedFormat = errors.New("unsupported worklist format")
)

// URLColumns are the recognized URL headers, in priority order.
var URLColumns = []string{"url", "link", "href"}

// ConfigurationError reports an input table whose schema cannot be resolved.
type ConfigurationError struct {
	Source  string
	Columns []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	source := e.Source
	if source == "" {
		source = "worklist"
	}

	return fmt.Sprintf("%s: %v (expected one of %s; found columns: %s)",
		source, e.Err, strings.Join(URLColumns, ", "), strings.Join(e.Columns, ", "))
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Table is a header plus rows aligned to it.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a table from key/value records. Columns follow keyOrder, then
// any other keys sorted per record in order of discovery.
func NewTable(keyOrder []string, records []map[string]string) Table {
	t := Table{Columns: append([]string(nil), keyOrder...)}
	index := make(map[string]int, len(keyOrder))

	for i, c := range t.Columns {
		index[c] = i
	}

	for _, rec := range records {
		for _, key := range slices.Sorted(maps.Keys(rec)) {
			if _, ok := index[key]; !ok {
				index[key] = len(t.Columns)
				t.Columns = append(t.Columns, key)
			}
		}
	}

	for _, rec := range records {
		row := make([]string, len(t.Columns))
		for key, value := range rec {
			row[index[key]] = value
		}

		t.Rows = append(t.Rows, row)
	}

	return t
}

// ResolveColumn returns the header index matching the first candidate, case-insensitively.
func ResolveColumn(columns []string, candidates ...string) (int, bool) {
	for _, candidate := range candidates {
		for i, column := range columns {
			if strings.EqualFold(strings.TrimSpace(column), candidate) {
				return i, true
			}
		}
	}

	return -1, false
}

// Loader turns tables into worklists.
type Loader struct {
	logger *logger.Logger
	http   *utils.HTTPHelper
}

// NewLoader creates a loader. A nil logger discards diagnostics.
func NewLoader(log *logger.Logger) *Loader {
	if log == nil {
		log = logger.Nop()
	}

	return &Loader{
		logger: log,
		http:   utils.NewHTTPHelper(""),
	}
}

// Load resolves the URL column and returns references in row order, keeping the
// first occurrence of each URL and skipping blank URL cells.
func (l *Loader) Load(t Table) ([]models.PoemReference, error) {
	return l.load("", t)
}

// LoadFile reads a .csv, .jsonl/.json or .parquet file and loads it.
func (l *Loader) LoadFile(path string) ([]models.PoemReference, error) {
	t, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	return l.load(filepath.Base(path), t)
}

func (l *Loader) load(source string, t Table) ([]models.PoemReference, error) {
	urlIdx, ok := ResolveColumn(t.Columns, URLColumns...)
	if !ok {
		return nil, &ConfigurationError{Source: source, Columns: t.Columns, Err: ErrNoURLColumn}
	}

	titleIdx, hasTitle := ResolveColumn(t.Columns, "title")
	authorIdx, hasAuthor := ResolveColumn(t.Columns, "author")

	seen := make(map[string]bool, len(t.Rows))
	refs := make([]models.PoemReference, 0, len(t.Rows))
	duplicates := 0

	for i, row := range t.Rows {
		url := strings.TrimSpace(cell(row, urlIdx))
		if url == "" {
			continue
		}

		if seen[url] {
			duplicates++

			continue
		}

		seen[url] = true

		if !l.http.IsValidURL(url) {
			l.logger.Warn("worklist URL is not an absolute http(s) URL", "row", i+1, "url", url)
		}

		ref := models.PoemReference{URL: url, Row: i + 1}
		if hasTitle {
			ref.Title = strings.TrimSpace(cell(row, titleIdx))
		}

		if hasAuthor {
			ref.Author = strings.TrimSpace(cell(row, authorIdx))
		}

		refs = append(refs, ref)
	}

	l.logger.Debug("worklist loaded",
		"source", source,
		"column", t.Columns[urlIdx],
		"rows", len(t.Rows),
		"poems", len(refs),
		"duplicates", duplicates,
	)

	return refs, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return row[idx]
}
