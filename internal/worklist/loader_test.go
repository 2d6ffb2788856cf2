package worklist

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poemcoder/internal/models"
)

func urls(refs []models.PoemReference) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.URL
	}

	return out
}

func TestLoader_Load_OrderAndDuplicates(t *testing.T) {
	table := Table{
		Columns: []string{"title", "author", "url"},
		Rows: [][]string{
			{"A", "Poet A", "https://poets.org/poem/a"},
			{"B", "Poet B", "https://poets.org/poem/b"},
			{"A again", "Poet A", "https://poets.org/poem/a"},
			{"Blank", "", "   "},
			{"C", "Poet C", " https://poets.org/poem/c "},
			{"Short"},
		},
	}

	refs, err := NewLoader(nil).Load(table)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://poets.org/poem/a",
		"https://poets.org/poem/b",
		"https://poets.org/poem/c",
	}, urls(refs))

	// first occurrence wins
	assert.Equal(t, "A", refs[0].Title)
	assert.Equal(t, "Poet A", refs[0].Author)
	assert.Equal(t, 1, refs[0].Row)
	assert.Equal(t, 5, refs[2].Row)
}

func TestLoader_Load_CaseInsensitiveColumns(t *testing.T) {
	for _, header := range []string{"URL", "Link", " HREF "} {
		t.Run(header, func(t *testing.T) {
			table := Table{
				Columns: []string{"Title", header},
				Rows:    [][]string{{"Poem", "https://poets.org/poem/x"}},
			}

			refs, err := NewLoader(nil).Load(table)
			require.NoError(t, err)
			require.Len(t, refs, 1)
			assert.Equal(t, "https://poets.org/poem/x", refs[0].URL)
			assert.Equal(t, "Poem", refs[0].Title)
		})
	}
}

func TestLoader_Load_ColumnPriority(t *testing.T) {
	table := Table{
		Columns: []string{"href", "url"},
		Rows:    [][]string{{"https://example.com/href", "https://example.com/url"}},
	}

	refs, err := NewLoader(nil).Load(table)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/url"}, urls(refs))
}

func TestLoader_Load_NoURLColumn(t *testing.T) {
	table := Table{
		Columns: []string{"title", "address"},
		Rows:    [][]string{{"x", "https://example.com"}},
	}

	refs, err := NewLoader(nil).Load(table)
	require.Error(t, err)
	assert.Nil(t, refs)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.ErrorIs(t, err, ErrNoURLColumn)
	assert.Equal(t, []string{"title", "address"}, cfgErr.Columns)
	assert.Contains(t, err.Error(), "address")
}

func TestLoader_Load_EmptyTable(t *testing.T) {
	refs, err := NewLoader(nil).Load(Table{Columns: []string{"url"}})
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestNewTable(t *testing.T) {
	table := NewTable([]string{"url"}, []map[string]string{
		{"url": "https://a", "title": "A"},
		{"url": "https://b", "author": "B"},
	})

	assert.Equal(t, []string{"url", "title", "author"}, table.Columns)
	assert.Equal(t, []string{"https://b", "", "B"}, table.Rows[1])
}

func TestReadCSV(t *testing.T) {
	input := "\ufeffTitle,Author,URL\n" +
		"\"Hope, is\",Emily Dickinson,https://poets.org/poem/hope\n" +
		"Ragged row,Nobody\n"

	table, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"Title", "Author", "URL"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "Hope, is", table.Rows[0][0])

	refs, err := NewLoader(nil).Load(table)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://poets.org/poem/hope"}, urls(refs))
}

func TestReadJSONL(t *testing.T) {
	input := `{"link": "https://poets.org/poem/a", "title": "A", "year": 1890}

{"link": "https://poets.org/poem/b", "author": null}
`

	table, err := ReadJSONL(strings.NewReader(input))
	require.NoError(t, err)

	refs, err := NewLoader(nil).Load(table)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://poets.org/poem/a", "https://poets.org/poem/b"}, urls(refs))
	assert.Equal(t, "A", refs[0].Title)
	assert.Equal(t, "", refs[1].Author)
}

func TestReadJSONL_Malformed(t *testing.T) {
	_, err := ReadJSONL(strings.NewReader("{\"url\": \"x\"}\nnot json\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadFile_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poets.csv")
	require.NoError(t, os.WriteFile(path, []byte("url,title\nhttps://a,A\nhttps://a,dup\n"), 0644))

	refs, err := NewLoader(nil).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a"}, urls(refs))
}

func TestLoadFile_NoURLColumnNamesSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poets.csv")
	require.NoError(t, os.WriteFile(path, []byte("title,author\nA,B\n"), 0644))

	_, err := NewLoader(nil).LoadFile(path)
	assert.ErrorIs(t, err, ErrNoURLColumn)
	assert.Contains(t, err.Error(), "poets.csv")
}

func TestLoadFile_UnsupportedFormat(t *testing.T) {
	_, err := NewLoader(nil).LoadFile("poems.xlsx")

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

type parquetPoem struct {
	Link   string `parquet:"Link"`
	Title  string `parquet:"title"`
	Author string `parquet:"author"`
}

func TestLoadFile_Parquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poets.parquet")

	f, err := os.Create(path)
	require.NoError(t, err)

	w := parquet.NewGenericWriter[parquetPoem](f)
	_, err = w.Write([]parquetPoem{
		{Link: "https://poets.org/poem/a", Title: "A", Author: "Poet A"},
		{Link: "https://poets.org/poem/b", Title: "B", Author: "Poet B"},
		{Link: "https://poets.org/poem/a", Title: "A2", Author: "Poet A"},
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	refs, err := NewLoader(nil).LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://poets.org/poem/a", "https://poets.org/poem/b"}, urls(refs))
	assert.Equal(t, "A", refs[0].Title)
	assert.Equal(t, "Poet B", refs[1].Author)
}
