package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poemcoder/internal/cache"
	"poemcoder/internal/config"
	"poemcoder/internal/models"
)

type cliFixture struct {
	config   string
	cacheDir string
	storeDir string
}

func newCLIFixture(t *testing.T) cliFixture {
	t.Helper()

	dir := t.TempDir()
	f := cliFixture{
		config:   filepath.Join(dir, "poemcoder.yaml"),
		cacheDir: filepath.Join(dir, "cache"),
		storeDir: filepath.Join(dir, "records"),
	}

	worklistPath := filepath.Join(dir, "poems.csv")
	csv := "url,title,author\n" +
		"https://example.org/poem/the-tide,The Tide,Ada Example\n" +
		"https://example.org/poem/missing-lines,Missing Lines,Bo Nobody\n"
	require.NoError(t, os.WriteFile(worklistPath, []byte(csv), 0644))

	yaml := fmt.Sprintf("worklist:\n  path: %q\ncache:\n  dir: %q\nstore:\n  dir: %q\nlogging:\n  level: error\n",
		worklistPath, f.cacheDir, f.storeDir)
	require.NoError(t, os.WriteFile(f.config, []byte(yaml), 0644))

	store := cache.NewStore(f.cacheDir)
	for url, fixture := range map[string]string{
		"https://example.org/poem/the-tide":      "poem_full.html",
		"https://example.org/poem/missing-lines": "poem_no_body.html",
	} {
		body, err := os.ReadFile(filepath.Join("..", "..", "test", "fixtures", fixture))
		require.NoError(t, err)

		_, err = store.Put(url, body)
		require.NoError(t, err)
	}

	t.Setenv("POEMCODER_CODER_ID", "")
	t.Setenv("POEMCODER_WORKLIST", "")

	return f
}

func (f cliFixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := newRootCmd()

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", f.config}, args...))

	err := root.ExecuteContext(context.Background())

	return out.String(), err
}

func TestWorklistCommand_ListsReferences(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "worklist")
	require.NoError(t, err)

	assert.Contains(t, out, "| # | Title")
	assert.Contains(t, out, "The Tide")
	assert.Contains(t, out, "https://example.org/poem/missing-lines")
}

func TestShowCommand_PrintsCachedPoem(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "show", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "# The Tide")
	assert.Contains(t, out, "Ada Example")
}

func TestSaveCommand_AdvancesNext(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "--coder", "c1", "save", "1",
		"--tags", "nature; The Sea", "--sentiment", "positive", "--complete")
	require.NoError(t, err)
	assert.Contains(t, out, "saved https://example.org/poem/the-tide (positive) for c1")
	assert.Contains(t, out, "next: #2 https://example.org/poem/missing-lines")

	out, err = f.run(t, "--coder", "c1", "next")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#2 https://example.org/poem/missing-lines"), out)

	out, err = f.run(t, "--coder", "c1", "progress")
	require.NoError(t, err)
	assert.Contains(t, out, "complete")
	assert.Contains(t, out, "not started")

	out, err = f.run(t, "show", "https://example.org/poem/the-tide")
	require.NoError(t, err)
	assert.Contains(t, out, "last coded by c1 at ")
	assert.Contains(t, out, "(positive, complete)")

	out, err = f.run(t, "snapshot")
	require.NoError(t, err)
	assert.Contains(t, out, "1 records, 1 poems, 1 complete, coders: c1")

	_, err = os.Stat(filepath.Join(f.storeDir, "codings.csv"))
	require.NoError(t, err)
}

func TestSaveCommand_RequiresCoder(t *testing.T) {
	f := newCLIFixture(t)

	_, err := f.run(t, "save", "1", "--complete")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--coder")
}

func TestCacheCommands(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "cache", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "2 pages")

	out, err = f.run(t, "cache", "rm", "https://example.org/poem/the-tide")
	require.NoError(t, err)
	assert.Contains(t, out, "removed")

	out, err = f.run(t, "cache", "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 1 cached pages")
}

func TestShowCommand_NoCodingYet(t *testing.T) {
	f := newCLIFixture(t)

	out, err := f.run(t, "show", "2")
	require.NoError(t, err)
	assert.NotContains(t, out, "last coded by")
}

func TestConfigCommands(t *testing.T) {
	f := newCLIFixture(t)
	path := filepath.Join(t.TempDir(), "nested", "written.yaml")

	out, err := f.run(t, "--coder", "c9", "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+path)

	loaded, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "c9", loaded.Coding.CoderID)
	assert.Equal(t, f.cacheDir, loaded.Cache.Dir)

	_, err = f.run(t, "config", "init", path)
	assert.ErrorIs(t, err, errConfigExists)

	_, err = f.run(t, "config", "init", "--force", path)
	require.NoError(t, err)

	out, err = f.run(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "tag_set: top20")
	assert.Contains(t, out, "max_attempts: 3")
}

func TestResolveRef(t *testing.T) {
	refs := []models.PoemReference{
		{URL: "https://example.org/a"},
		{URL: "https://example.org/b"},
	}

	tests := []struct {
		name    string
		arg     string
		want    int
		wantErr bool
	}{
		{name: "first index", arg: "1", want: 0},
		{name: "last index", arg: " 2 ", want: 1},
		{name: "by url", arg: "https://example.org/b", want: 1},
		{name: "zero", arg: "0", wantErr: true},
		{name: "past end", arg: "3", wantErr: true},
		{name: "unknown url", arg: "https://example.org/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveRef(refs, tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
