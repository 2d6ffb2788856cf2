package normalizer

import (
	"strings"
	"sync"
	"time"

	"poemcoder/internal/models"
)

// errNotLoaded is recorded when a save carries no fetch or extraction outcome.
const errNotLoaded = "poem content was not loaded"

// Transformer builds immutable coding records.
type Transformer struct {
	now      func() time.Time
	baseTags []string

	mu   sync.Mutex
	last time.Time
}

// NewTransformer creates a transformer stamping records with now.
func NewTransformer(now func() time.Time, baseTags []string) *Transformer {
	if now == nil {
		now = time.Now
	}

	return &Transformer{now: now, baseTags: baseTags}
}

// Transform converts a validated input into a record.
func (t *Transformer) Transform(in Input) (models.CodingRecord, error) {
	sentiment, err := parseSentiment(in.Draft.Sentiment)
	if err != nil {
		return models.CodingRecord{}, err
	}

	tags := newTagNormalizer(t.baseTags)
	tags.addList(in.Draft.Tags)
	tags.addText(in.Draft.TagInput)

	poem := in.Poem
	if poem.Ref.URL == "" {
		poem.Ref = in.Reference
	}

	record := models.CodingRecord{
		TimestampISO: t.stamp().Format(models.TimestampLayout),
		CoderID:      strings.TrimSpace(in.Session.CoderID),
		URL:          strings.TrimSpace(in.Reference.URL),
		PoemUUID:     models.OptionalString(poem.Meta.PoemUUID),
		Title:        poem.Title(),
		Author:       poem.Author(),
		TagsJoined:   models.JoinTags(tags.tags),
		Sentiment:    sentiment,
		Notes:        in.Draft.Notes,
		IsComplete:   in.Draft.IsComplete,
		HTMLSHA1:     poem.HTMLSHA1,
		ExtractionOK: poem.ExtractionOK,
		Error:        models.OptionalString(poem.Error),
	}

	if poem.HTMLSHA1 == "" && poem.Error == "" {
		record.ExtractionOK = false
		record.Error = models.OptionalString(errNotLoaded)
	}

	return record, nil
}

// stamp returns the current UTC time, strictly after the previous stamp.
func (t *Transformer) stamp() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now().UTC()
	if !now.After(t.last) {
		now = t.last.Add(time.Nanosecond)
	}

	t.last = now

	return now
}
