// Package cache stores raw poem pages on disk, one file per URL-derived slug.
package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"poemcoder/pkg/digest"
)

const (
	fileExt          = ".html"
	maxSlugLength    = 200
	hashSuffixLength = 12
)

// ErrEmptyURL is returned when a cache key cannot be derived.
var ErrEmptyURL = errors.New("cache key requires a non-empty URL")

// Entry is one cached page.
type Entry struct {
	Slug string
	Path string
	Body []byte
	SHA1 string
}

// Stats summarises the cache directory.
type Stats struct {
	Entries int
	Bytes   int64
}

// Store is a directory of cached pages. Writes are atomic renames, so
// concurrent writers of the same slug leave one complete file.
type Store struct {
	dir string
}

// NewStore returns a store rooted at dir. The directory is created lazily.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the cache directory.
func (s *Store) Dir() string {
	return s.dir
}

// Slug derives the filesystem-safe key for rawURL: the readable slug plus a
// short hash of the exact URL. Slugging folds case and punctuation, so two
// URLs that differ only there still get distinct keys.
func Slug(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", ErrEmptyURL
	}

	sum := digest.SHA1([]byte(trimmed))

	base := slug.Make(trimmed)
	if base == "" {
		return sum, nil
	}

	suffix := sum[:hashSuffixLength]

	if maxBase := maxSlugLength - len(suffix) - 1; len(base) > maxBase {
		base = strings.TrimRight(base[:maxBase], "-")
	}

	return base + "-" + suffix, nil
}

// PathFor returns the cache file path for rawURL.
func (s *Store) PathFor(rawURL string) (string, error) {
	key, err := Slug(rawURL)
	if err != nil {
		return "", err
	}

	return filepath.Join(s.dir, key+fileExt), nil
}

// Get returns the cached entry for rawURL. ok is false on a miss.
func (s *Store) Get(rawURL string) (Entry, bool, error) {
	path, err := s.PathFor(rawURL)
	if err != nil {
		return Entry{}, false, err
	}

	body, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, false, nil
	}

	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	return newEntry(path, body), true, nil
}

// Put stores body for rawURL and returns the new entry.
func (s *Store) Put(rawURL string, body []byte) (Entry, error) {
	path, err := s.PathFor(rawURL)
	if err != nil {
		return Entry{}, err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return Entry{}, fmt.Errorf("failed to create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return Entry{}, fmt.Errorf("failed to create cache temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return Entry{}, fmt.Errorf("failed to write cache entry: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return Entry{}, fmt.Errorf("failed to close cache entry: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return Entry{}, fmt.Errorf("failed to commit cache entry: %w", err)
	}

	return newEntry(path, body), nil
}

// Remove deletes the entry for rawURL. Removing a missing entry is not an error.
func (s *Store) Remove(rawURL string) (bool, error) {
	path, err := s.PathFor(rawURL)
	if err != nil {
		return false, err
	}

	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to remove cache entry: %w", err)
	}

	return true, nil
}

// Clean removes every cached page and returns how many were deleted.
func (s *Store) Clean() (int, error) {
	removed := 0

	err := s.walk(func(path string, _ fs.FileInfo) error {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
		}

		removed++

		return nil
	})

	return removed, err
}

// Stats counts entries and their total size.
func (s *Store) Stats() (Stats, error) {
	var st Stats

	err := s.walk(func(_ string, info fs.FileInfo) error {
		st.Entries++
		st.Bytes += info.Size()

		return nil
	})

	return st, err
}

func (s *Store) walk(fn func(path string, info fs.FileInfo) error) error {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to list cache dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}

		info, err := e.Info()
		if err != nil {
			continue
		}

		if err := fn(filepath.Join(s.dir, e.Name()), info); err != nil {
			return err
		}
	}

	return nil
}

func newEntry(path string, body []byte) Entry {
	return Entry{
		Slug: strings.TrimSuffix(filepath.Base(path), fileExt),
		Path: path,
		Body: body,
		SHA1: digest.SHA1(body),
	}
}
