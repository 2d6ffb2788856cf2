package worklist

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
)

const maxJSONLineBytes = 4 * 1024 * 1024

// ReadFile reads a tabular file, choosing the reader by extension.
func ReadFile(path string) (Table, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".csv":
		return readCSV(path)
	case ".jsonl", ".json":
		return readJSONL(path)
	case ".parquet":
		return readParquet(path)
	default:
		return Table{}, &ConfigurationError{
			Source: filepath.Base(path),
			Err:    fmt.Errorf("%w: %q (supported: .csv, .jsonl, .parquet)", ErrUnsupportedFormat, ext),
		}
	}
}

// ReadCSV parses CSV with a header row.
func ReadCSV(r io.Reader) (Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Table{}, nil
	}

	if err != nil {
		return Table{}, fmt.Errorf("failed to read CSV header: %w", err)
	}

	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := Table{Columns: header}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return Table{}, fmt.Errorf("failed to read CSV row %d: %w", len(t.Rows)+1, err)
		}

		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

func readCSV(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open worklist: %w", err)
	}
	defer file.Close()

	return ReadCSV(file)
}

// ReadJSONL parses one JSON object per line; values are stringified.
func ReadJSONL(r io.Reader) (Table, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxJSONLineBytes)

	var (
		order   []string
		seen    = map[string]bool{}
		records []map[string]string
		lineNum int
	)

	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var obj map[string]any
		if err := json.Unmarshal([]byte(line), &obj); err != nil {
			return Table{}, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}

		rec := make(map[string]string, len(obj))
		for _, key := range slices.Sorted(maps.Keys(obj)) {
			if !seen[key] {
				seen[key] = true
				order = append(order, key)
			}

			rec[key] = stringify(obj[key])
		}

		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return Table{}, fmt.Errorf("failed to read JSONL: %w", err)
	}

	return NewTable(order, records), nil
}

func readJSONL(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open worklist: %w", err)
	}
	defer file.Close()

	return ReadJSONL(file)
}

func readParquet(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("failed to open worklist: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Table{}, fmt.Errorf("failed to stat worklist: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return Table{}, fmt.Errorf("failed to open parquet file: %w", err)
	}

	paths := pf.Schema().Columns()
	t := Table{Columns: make([]string, len(paths))}

	for i, p := range paths {
		t.Columns[i] = p[len(p)-1]
	}

	buf := make([]parquet.Row, 128)

	for _, rg := range pf.RowGroups() {
		if err := readRowGroup(rg, len(t.Columns), buf, &t); err != nil {
			return Table{}, err
		}
	}

	return t, nil
}

func readRowGroup(rg parquet.RowGroup, width int, buf []parquet.Row, t *Table) error {
	rows := rg.Rows()
	defer rows.Close()

	for {
		n, err := rows.ReadRows(buf)

		for _, row := range buf[:n] {
			record := make([]string, width)

			for _, v := range row {
				col := v.Column()
				if col < 0 || col >= width || v.IsNull() {
					continue
				}

				switch v.Kind() {
				case parquet.ByteArray, parquet.FixedLenByteArray:
					record[col] = string(v.ByteArray())
				default:
					record[col] = v.String()
				}
			}

			t.Rows = append(t.Rows, record)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}

			return fmt.Errorf("failed to read parquet rows: %w", err)
		}

		if n == 0 {
			return nil
		}
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}

		return string(data)
	}
}
