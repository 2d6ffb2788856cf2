package crawler

import (
	"context"
	"fmt"

	"poemcoder/internal/extractor"
	"poemcoder/internal/logger"
	"poemcoder/internal/models"
)

// Extractor parses a cached page. *extractor.Extractor satisfies it.
type Extractor interface {
	Extract(html []byte) extractor.Result
}

// PoemResult is everything known about one worklist entry after fetch and extraction.
type PoemResult struct {
	Ref          models.PoemReference
	Meta         models.PoemMeta
	Text         models.PoemText
	HTMLSHA1     string
	FromCache    bool
	Stale        bool
	ExtractionOK bool
	// Error is the diagnostic recorded alongside a coding record.
	Error string
	// FetchErr is set when no content could be obtained; the extractor was not run.
	FetchErr error
}

// Fetched reports whether page content was obtained.
func (r PoemResult) Fetched() bool {
	return r.FetchErr == nil
}

// Title prefers the extracted title over the worklist value.
func (r PoemResult) Title() string {
	if r.Meta.Title != "" {
		return r.Meta.Title
	}

	return r.Ref.Title
}

// Author prefers the extracted byline over the worklist value.
func (r PoemResult) Author() string {
	if r.Meta.Author.Name != "" {
		return r.Meta.Author.Name
	}

	return r.Ref.Author
}

// Client runs fetch and extraction for worklist entries.
type Client struct {
	fetcher   *Fetcher
	extractor Extractor
	logger    *logger.Logger
}

// NewClient creates a pipeline client.
func NewClient(fetcher *Fetcher, x Extractor, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		fetcher:   fetcher,
		extractor: x,
		logger:    log,
	}
}

// Fetcher returns the underlying fetcher.
func (c *Client) Fetcher() *Fetcher {
	return c.fetcher
}

// Process fetches ref (cache first) and extracts it.
func (c *Client) Process(ctx context.Context, ref models.PoemReference) PoemResult {
	res, err := c.fetcher.Fetch(ctx, ref.URL)

	return c.finish(ref, res, err)
}

// Reload refetches ref from the network and extracts it.
func (c *Client) Reload(ctx context.Context, ref models.PoemReference) PoemResult {
	res, err := c.fetcher.Refetch(ctx, ref.URL)

	return c.finish(ref, res, err)
}

func (c *Client) finish(ref models.PoemReference, res Result, err error) PoemResult {
	out := PoemResult{Ref: ref, Meta: models.PoemMeta{Themes: []string{}}}

	if err != nil {
		out.FetchErr = err
		out.Error = err.Error()

		return out
	}

	out.HTMLSHA1 = res.SHA1
	out.FromCache = res.FromCache
	out.Stale = res.Stale

	ext := c.extractor.Extract(res.Body)
	out.Meta = ext.Meta
	out.Text = ext.Text
	out.ExtractionOK = ext.OK
	out.Error = ext.Error

	if res.Stale && out.Error == "" {
		out.Error = fmt.Sprintf("served stale cache: %v", res.RefreshErr)
	}

	if !ext.OK {
		c.logger.Warn("extraction failed", "url", ref.URL, "error", ext.Error)
	}

	return out
}

// FailedFetch pairs a worklist entry with its fetch error.
type FailedFetch struct {
	Ref models.PoemReference
	Err error
}

// PrefetchReport summarises a prefetch run. Changed counts downloads that
// replaced a cached copy with different content.
type PrefetchReport struct {
	Total     int
	CacheHits int
	Fetched   int
	Stale     int
	Changed   int
	Failed    []FailedFetch
}

// Prefetch warms the cache for every reference. A failing URL never stops
// the run; it is reported in Failed. When refresh is set every page is
// downloaded again.
func (c *Client) Prefetch(ctx context.Context, refs []models.PoemReference, refresh bool) (PrefetchReport, error) {
	report := PrefetchReport{Total: len(refs)}

	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("prefetch interrupted at %d/%d: %w", i, len(refs), err)
		}

		fetch := c.fetcher.Fetch
		if refresh {
			fetch = c.fetcher.Refetch
		}

		res, err := fetch(ctx, ref.URL)

		switch {
		case err != nil:
			report.Failed = append(report.Failed, FailedFetch{Ref: ref, Err: err})
		case res.Stale:
			report.Stale++
		case res.FromCache:
			report.CacheHits++
		default:
			report.Fetched++

			if res.Changed {
				report.Changed++
			}
		}

		c.logger.Debug("prefetch progress", "done", i+1, "total", len(refs), "url", ref.URL)
	}

	return report, nil
}
