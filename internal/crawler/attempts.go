package crawler

import (
	"fmt"
	"sync"
	"time"

	"poemcoder/internal/logger"
)

// AttemptResult records the result of one network attempt.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Error      string
	Attempt    int
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// AttemptLog keeps every network attempt per URL in first-seen order.
type AttemptLog struct {
	mu      sync.Mutex
	entries map[string][]AttemptResult
	order   []string
}

// NewAttemptLog creates an empty log.
func NewAttemptLog() *AttemptLog {
	return &AttemptLog{entries: make(map[string][]AttemptResult)}
}

// RecordAttempt records the result of a fetch attempt.
func (al *AttemptLog) RecordAttempt(url string, success bool, err error, statusCode int, duration time.Duration, at time.Time) {
	al.mu.Lock()
	defer al.mu.Unlock()

	if _, ok := al.entries[url]; !ok {
		al.order = append(al.order, url)
	}

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	al.entries[url] = append(al.entries[url], AttemptResult{
		URL:        url,
		Attempt:    len(al.entries[url]) + 1,
		Success:    success,
		Error:      errMsg,
		Timestamp:  at,
		Duration:   duration,
		StatusCode: statusCode,
	})
}

// Attempts returns a copy of the attempts made for url.
func (al *AttemptLog) Attempts(url string) []AttemptResult {
	al.mu.Lock()
	defer al.mu.Unlock()

	return append([]AttemptResult(nil), al.entries[url]...)
}

// Stats returns statistics about fetch attempts.
func (al *AttemptLog) Stats() AttemptStats {
	al.mu.Lock()
	defer al.mu.Unlock()

	stats := AttemptStats{
		TotalURLs:   len(al.order),
		URLAttempts: make(map[string]int, len(al.order)),
	}

	for url, results := range al.entries {
		stats.URLAttempts[url] = len(results)
		stats.TotalAttempts += len(results)

		urlSuccess := false

		for _, result := range results {
			if result.Success {
				stats.SuccessfulAttempts++
				urlSuccess = true
			} else {
				stats.FailedAttempts++
			}
		}

		if urlSuccess {
			stats.SuccessfulURLs++
		} else {
			stats.FailedURLs++
		}
	}

	return stats
}

// AttemptStats contains statistics about fetch attempts.
type AttemptStats struct {
	URLAttempts        map[string]int
	TotalURLs          int
	SuccessfulURLs     int
	FailedURLs         int
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
}

// String returns a string representation of attempt stats.
func (s AttemptStats) String() string {
	return fmt.Sprintf(
		"URLs: %d total, %d success, %d failed | Attempts: %d total, %d success, %d failed",
		s.TotalURLs,
		s.SuccessfulURLs,
		s.FailedURLs,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
	)
}

// LogSummary logs every URL's attempts followed by the overall stats.
func (al *AttemptLog) LogSummary(l *logger.Logger) {
	al.mu.Lock()
	order := append([]string(nil), al.order...)
	al.mu.Unlock()

	if len(order) == 0 {
		l.Info("no network attempts")
		return
	}

	for i, url := range order {
		results := al.Attempts(url)
		last := results[len(results)-1]

		l.Info(fmt.Sprintf("%d. %s", i+1, url), "attempts", len(results), "success", last.Success)

		for _, result := range results {
			if result.Success {
				l.Debug("attempt succeeded", "url", url, "attempt", result.Attempt, "duration", result.Duration)
				continue
			}

			l.Debug("attempt failed", "url", url, "attempt", result.Attempt,
				"status", result.StatusCode, "error", result.Error, "duration", result.Duration)
		}
	}

	l.Info(fmt.Sprintf("Overall: %s", al.Stats()))
}

// Reset clears the log.
func (al *AttemptLog) Reset() {
	al.mu.Lock()
	defer al.mu.Unlock()

	al.entries = make(map[string][]AttemptResult)
	al.order = nil
}
