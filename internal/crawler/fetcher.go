package crawler

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"

	"poemcoder/internal/cache"
	"poemcoder/internal/config"
	"poemcoder/internal/logger"
	"poemcoder/pkg/digest"
	"poemcoder/pkg/utils"
)

// Fetch errors.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrEmptyBody            = errors.New("empty response body")
	ErrInvalidURL           = errors.New("not an absolute http(s) URL")
)

// FetchError is returned when a page could not be retrieved and no cached
// copy exists.
type FetchError struct {
	URL        string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s failed after %d attempt(s) (last status %d): %v", e.URL, e.Attempts, e.StatusCode, e.Err)
	}

	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result is a fetched page.
type Result struct {
	URL  string
	Slug string
	Body []byte
	SHA1 string
	// FromCache is set when Body came from the cache instead of the network.
	FromCache bool
	// Stale is set when a refresh failed and the previous cached copy was served.
	Stale bool
	// RefreshErr is the network failure behind a stale result.
	RefreshErr error
	// Changed is set when a download replaced a cached copy with different content.
	Changed bool
}

// Fetcher retrieves pages through the cache with rate-limited retries.
type Fetcher struct {
	http     *resty.Client
	cache    *cache.Store
	retry    config.RetryPolicy
	interval time.Duration
	clock    Clock
	jitter   func() float64
	logger   *logger.Logger
	attempts *AttemptLog
	urls     *utils.HTTPHelper

	mu          sync.Mutex
	lastRequest time.Time
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(f *Fetcher) { f.clock = c }
}

// WithJitterSource replaces the random source used for jitter. fn returns values in [0,1).
func WithJitterSource(fn func() float64) Option {
	return func(f *Fetcher) { f.jitter = fn }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithAttemptLog shares an attempt log between fetchers.
func WithAttemptLog(al *AttemptLog) Option {
	return func(f *Fetcher) { f.attempts = al }
}

// WithRetryPolicy overrides the configured policy.
func WithRetryPolicy(rp config.RetryPolicy) Option {
	return func(f *Fetcher) { f.retry = rp }
}

// NewFetcher creates a fetcher backed by store.
func NewFetcher(store *cache.Store, cfg config.FetcherConfig, opts ...Option) *Fetcher {
	f := &Fetcher{
		cache:    store,
		retry:    cfg.Retry,
		interval: cfg.MinInterval(),
		clock:    SystemClock{},
		jitter:   rand.Float64,
		logger:   logger.Nop(),
		attempts: NewAttemptLog(),
		urls:     utils.NewHTTPHelper(cfg.UserAgent),
	}

	for _, opt := range opts {
		opt(f)
	}

	client := resty.New()
	if cfg.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeaders(utils.HeaderMap(utils.NewHTTPHelper(cfg.UserAgent).BuildHeaders(nil)))
	client.SetTimeout(f.retry.GetTimeout())
	client.SetRetryCount(0)

	f.http = client

	return f
}

// Attempts returns the attempt log.
func (f *Fetcher) Attempts() *AttemptLog {
	return f.attempts
}

// Policy returns the retry policy in use.
func (f *Fetcher) Policy() config.RetryPolicy {
	return f.retry
}

// Fetch returns the cached page for url, downloading it on a miss.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Result, error) {
	return f.fetch(ctx, url, true)
}

// Refetch downloads url even when cached. On failure the cached copy, if
// any, is returned with Stale set.
func (f *Fetcher) Refetch(ctx context.Context, url string) (Result, error) {
	return f.fetch(ctx, url, false)
}

func (f *Fetcher) fetch(ctx context.Context, url string, useCache bool) (Result, error) {
	log := f.logger.With("url", url)

	if !f.urls.IsValidURL(url) {
		log.Error("refusing to fetch invalid URL")
		return Result{}, &FetchError{URL: url, Err: ErrInvalidURL}
	}

	entry, cached, err := f.cache.Get(url)
	if errors.Is(err, cache.ErrEmptyURL) {
		return Result{}, &FetchError{URL: url, Err: err}
	}

	if err != nil {
		log.Warn("cache read failed", "error", err)

		cached = false
	}

	if useCache && cached {
		log.Debug("cache hit", "slug", entry.Slug)
		return fromEntry(url, entry), nil
	}

	body, status, attempts, err := f.download(ctx, url)
	if err != nil {
		fetchErr := &FetchError{URL: url, Attempts: attempts, StatusCode: status, Err: err}

		if cached {
			log.Warn("refresh failed, serving cached copy", "error", fetchErr)

			res := fromEntry(url, entry)
			res.Stale = true
			res.RefreshErr = fetchErr

			return res, nil
		}

		log.Error("fetch failed", "attempts", attempts, "status", status, "error", err)

		return Result{}, fetchErr
	}

	changed := false

	if cached {
		if err := digest.Verify(body, entry.SHA1); err != nil {
			changed = true

			log.Info("page changed since it was cached", "old_sha1", entry.SHA1)
		} else {
			log.Debug("page unchanged", "sha1", entry.SHA1)
		}
	}

	stored, err := f.cache.Put(url, body)
	if err != nil {
		log.Warn("failed to cache page", "error", err)

		return Result{URL: url, Body: body, SHA1: digest.SHA1(body), Changed: changed}, nil
	}

	log.Debug("page cached", "slug", stored.Slug, "bytes", len(body), "attempts", attempts)

	res := fromEntry(url, stored)
	res.FromCache = false
	res.Changed = changed

	return res, nil
}

func fromEntry(url string, e cache.Entry) Result {
	return Result{URL: url, Slug: e.Slug, Body: e.Body, SHA1: e.SHA1, FromCache: true}
}

// download returns (body, lastStatusCode, attempts, error).
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, int, int, error) {
	var lastErr error

	var lastStatusCode int

	for attempt := 1; attempt <= f.retry.MaxAttempts; attempt++ {
		if err := f.waitTurn(ctx); err != nil {
			return nil, lastStatusCode, attempt - 1, err
		}

		startTime := f.clock.Now()
		resp, err := f.http.R().SetContext(ctx).Get(url)
		duration := f.clock.Now().Sub(startTime)

		retryable := false

		switch {
		case err != nil:
			lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, f.retry.MaxAttempts, err)
			lastStatusCode = 0
			retryable = ctx.Err() == nil && isRetryableError(err)
		case !resp.IsSuccess():
			lastStatusCode = resp.StatusCode()
			lastErr = fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, lastStatusCode)
			retryable = isRetryableStatus(lastStatusCode)
		case len(resp.Body()) == 0:
			lastStatusCode = resp.StatusCode()
			lastErr = ErrEmptyBody
			retryable = true
		default:
			f.attempts.RecordAttempt(url, true, nil, resp.StatusCode(), duration, startTime)
			return resp.Body(), resp.StatusCode(), attempt, nil
		}

		f.attempts.RecordAttempt(url, false, lastErr, lastStatusCode, duration, startTime)

		if !retryable || attempt == f.retry.MaxAttempts {
			return nil, lastStatusCode, attempt, lastErr
		}

		delay := f.backoff(attempt)
		f.logger.Warn("retrying fetch", "url", url, "attempt", attempt, "delay", delay, "error", lastErr)

		if err := f.clock.Sleep(ctx, delay); err != nil {
			return nil, lastStatusCode, attempt, err
		}
	}

	return nil, lastStatusCode, f.retry.MaxAttempts, lastErr
}

// waitTurn blocks until the minimum interval since the previous request has
// passed. The lock is held while waiting so concurrent callers queue up.
func (f *Fetcher) waitTurn(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.lastRequest.IsZero() && f.interval > 0 {
		if wait := f.lastRequest.Add(f.interval).Sub(f.clock.Now()); wait > 0 {
			f.logger.Debug("rate limit wait", "delay", wait)

			if err := f.clock.Sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	f.lastRequest = f.clock.Now()

	return nil
}

// backoff returns the policy delay for attempt with ±Jitter applied.
func (f *Fetcher) backoff(attempt int) time.Duration {
	delay := f.retry.GetRetryDelay(attempt)
	if f.retry.Jitter <= 0 || delay <= 0 {
		return delay
	}

	factor := 1 + f.retry.Jitter*(2*f.jitter()-1)

	return time.Duration(float64(delay) * factor)
}

// isRetryableStatus reports whether a status is worth another attempt.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusForbidden, // 403, bot protection often clears
		http.StatusRequestTimeout,      // 408
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	}

	return false
}

// isRetryableError reports whether a transport error may clear on retry.
// Malformed URLs and unsupported schemes never do.
func isRetryableError(err error) bool {
	var uerr *neturl.Error
	if !errors.As(err, &uerr) {
		return true
	}

	if uerr.Timeout() || uerr.Err == nil {
		return true
	}

	if uerr.Op == "parse" {
		return false
	}

	return !strings.Contains(uerr.Err.Error(), "unsupported protocol scheme")
}
