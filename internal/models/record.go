package models

import (
	"errors"
	"fmt"
	"strings"
)

// TagDelimiter joins tags in TagsJoined.
const TagDelimiter = ";"

// TimestampLayout is RFC 3339 with fixed nanosecond precision, so stamps also sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Sentiment is the coder's overall reading of a poem.
type Sentiment string

// Sentiment values.
const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUnsure   Sentiment = "unsure"
)

// ErrInvalidSentiment is returned for values outside the sentiment enum.
var ErrInvalidSentiment = errors.New("sentiment must be one of: positive, neutral, negative, unsure")

// Sentiments lists the accepted values in display order.
func Sentiments() []Sentiment {
	return []Sentiment{SentimentPositive, SentimentNeutral, SentimentNegative, SentimentUnsure}
}

// ParseSentiment parses a sentiment case-insensitively.
func ParseSentiment(s string) (Sentiment, error) {
	v := Sentiment(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Sentiments() {
		if v == known {
			return v, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidSentiment, s)
}

// CodingRecord is one immutable entry of the coding log.
type CodingRecord struct {
	TimestampISO string    `json:"timestamp_iso"`
	CoderID      string    `json:"coder_id"`
	URL          string    `json:"url"`
	PoemUUID     *string   `json:"poem_uuid"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	TagsJoined   string    `json:"tags_joined"`
	Sentiment    Sentiment `json:"sentiment"`
	Notes        string    `json:"notes"`
	IsComplete   bool      `json:"is_complete"`
	HTMLSHA1     string    `json:"html_sha1"`
	ExtractionOK bool      `json:"extraction_ok"`
	Error        *string   `json:"error"`
}

// RecordKey identifies the latest-state slot of a record.
type RecordKey struct {
	CoderID string
	URL     string
}

// Key returns the (coder, url) pair of the record.
func (r CodingRecord) Key() RecordKey {
	return RecordKey{CoderID: r.CoderID, URL: r.URL}
}

// Tags splits TagsJoined back into tags.
func (r CodingRecord) Tags() []string {
	return SplitTags(r.TagsJoined)
}

// ErrorMessage returns the error text or an empty string.
func (r CodingRecord) ErrorMessage() string {
	if r.Error == nil {
		return ""
	}

	return *r.Error
}

// UUID returns the poem uuid or an empty string.
func (r CodingRecord) UUID() string {
	if r.PoemUUID == nil {
		return ""
	}

	return *r.PoemUUID
}

// JoinTags joins tags with TagDelimiter, skipping blanks.
func JoinTags(tags []string) string {
	kept := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			kept = append(kept, tag)
		}
	}

	return strings.Join(kept, TagDelimiter)
}

// SplitTags is the inverse of JoinTags.
func SplitTags(joined string) []string {
	var tags []string

	for _, tag := range strings.Split(joined, TagDelimiter) {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}

	return tags
}

// OptionalString returns nil for an empty string.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
