package cache

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poemcoder/pkg/digest"
)

func TestSlug(t *testing.T) {
	a, err := Slug("https://poets.org/poem/the-raven")
	require.NoError(t, err)

	assert.NotContains(t, a, "/")
	assert.NotContains(t, a, ":")
	assert.Contains(t, a, "raven")

	again, err := Slug("  https://poets.org/poem/the-raven ")
	require.NoError(t, err)
	assert.Equal(t, a, again, "slug must be stable")

	b, err := Slug("https://poets.org/poem/annabel-lee")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	_, err = Slug("  ")
	assert.ErrorIs(t, err, ErrEmptyURL)
}

func TestSlug_LossySlugsStayDistinct(t *testing.T) {
	pairs := [][2]string{
		{"https://poets.org/Poem?id=1", "https://poets.org/poem-id-1"},
		{"https://poets.org/poem/a-b", "https://poets.org/poem-a/b"},
		{"https://poets.org/poem/Raven", "https://poets.org/poem/raven"},
	}

	for _, pair := range pairs {
		a, err := Slug(pair[0])
		require.NoError(t, err)

		b, err := Slug(pair[1])
		require.NoError(t, err)

		assert.NotEqual(t, a, b, "%s and %s share a cache key", pair[0], pair[1])
	}
}

func TestStore_CollidingSlugsDoNotShareEntries(t *testing.T) {
	s := NewStore(t.TempDir())

	_, err := s.Put("https://poets.org/Poem?id=1", []byte("query page"))
	require.NoError(t, err)

	_, ok, err := s.Get("https://poets.org/poem-id-1")
	require.NoError(t, err)
	assert.False(t, ok, "warm hit must not return another URL's page")
}

func TestSlug_LongURLIsBounded(t *testing.T) {
	long := "https://poets.org/poem/" + strings.Repeat("verse-", 80)

	key, err := Slug(long)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(key), maxSlugLength)

	other, err := Slug(long + "x")
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestStore_PutGet(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "html_cache"))
	url := "https://poets.org/poem/hope"
	body := []byte("<html>hope</html>")

	_, ok, err := s.Get(url)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache must miss")

	put, err := s.Put(url, body)
	require.NoError(t, err)
	assert.Equal(t, digest.SHA1(body), put.SHA1)

	got, ok, err := s.Get(url)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, body, got.Body)
	assert.Equal(t, put.SHA1, got.SHA1)
	assert.Equal(t, put.Path, got.Path)

	onDisk, err := os.ReadFile(got.Path)
	require.NoError(t, err)
	assert.Equal(t, body, onDisk)
}

func TestStore_PutOverwrites(t *testing.T) {
	s := NewStore(t.TempDir())
	url := "https://poets.org/poem/x"

	_, err := s.Put(url, []byte("v1"))
	require.NoError(t, err)
	_, err = s.Put(url, []byte("v2"))
	require.NoError(t, err)

	got, ok, err := s.Get(url)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", string(got.Body))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 1, st.Entries, "one file per URL")
}

func TestStore_RemoveCleanStats(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	_, err := s.Put("https://a.example/1", []byte("12345"))
	require.NoError(t, err)
	_, err = s.Put("https://a.example/2", []byte("123"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("keep"), 0o644))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Entries: 2, Bytes: 8}, st)

	removed, err := s.Remove("https://a.example/1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove("https://a.example/1")
	require.NoError(t, err)
	assert.False(t, removed)

	n, err := s.Clean()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = os.Stat(filepath.Join(dir, "notes.txt"))
	assert.NoError(t, err, "clean only touches cache entries")
}

func TestStore_MissingDir(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "absent"))

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Zero(t, st.Entries)

	n, err := s.Clean()
	require.NoError(t, err)
	assert.Zero(t, n)
}
