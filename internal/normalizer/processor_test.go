package normalizer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poemcoder/internal/crawler"
	"poemcoder/internal/models"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 123456789, time.FixedZone("EST", -5*3600))

func fixedClock() time.Time {
	return fixedNow
}

func session(coder string) models.SessionContext {
	return models.SessionContext{SessionID: "s-1", CoderID: coder}
}

func extractedPoem(ref models.PoemReference) crawler.PoemResult {
	return crawler.PoemResult{
		Ref: ref,
		Meta: models.PoemMeta{
			PoemUUID: "uuid-1",
			Title:    "Extracted Title",
			Author:   models.Author{Name: "Extracted Author"},
			Themes:   []string{},
		},
		HTMLSHA1:     "abc123",
		ExtractionOK: true,
	}
}

func TestProcessor_Process(t *testing.T) {
	p := NewProcessor(WithClock(fixedClock))
	ref := models.PoemReference{URL: "https://poets.org/poem/a", Title: "Sheet", Author: "Sheet Author"}

	record, err := p.Process(Input{
		Session:   session(" c1 "),
		Reference: ref,
		Poem:      extractedPoem(ref),
		Draft: models.Draft{
			Tags:       []string{"Nature"},
			TagInput:   "grief,  nature",
			Sentiment:  "Negative",
			Notes:      "  dark  ",
			IsComplete: true,
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-05-06T12:08:09.123456789Z", record.TimestampISO)
	assert.Equal(t, "c1", record.CoderID)
	assert.Equal(t, ref.URL, record.URL)
	assert.Equal(t, "uuid-1", record.UUID())
	assert.Equal(t, "Extracted Title", record.Title)
	assert.Equal(t, "Extracted Author", record.Author)
	assert.Equal(t, "nature;Grief", record.TagsJoined)
	assert.Equal(t, models.SentimentNegative, record.Sentiment)
	assert.Equal(t, "  dark  ", record.Notes)
	assert.True(t, record.IsComplete)
	assert.Equal(t, "abc123", record.HTMLSHA1)
	assert.True(t, record.ExtractionOK)
	assert.Nil(t, record.Error)
}

func TestProcessor_NotesKeptVerbatim(t *testing.T) {
	p := NewProcessor(WithClock(fixedClock))
	ref := models.PoemReference{URL: "https://poets.org/poem/a"}
	notes := "  indented quote:\n    \"the sea, the sea\"\n\n"

	record, err := p.Process(Input{
		Session:   session("c1"),
		Reference: ref,
		Poem:      extractedPoem(ref),
		Draft:     models.Draft{Notes: notes},
	})
	require.NoError(t, err)

	assert.Equal(t, notes, record.Notes)
}

func TestProcessor_EmptySentimentIsUnsure(t *testing.T) {
	p := NewProcessor(WithClock(fixedClock))
	ref := models.PoemReference{URL: "https://poets.org/poem/a"}

	record, err := p.Process(Input{Session: session("c1"), Reference: ref, Poem: extractedPoem(ref)})
	require.NoError(t, err)

	assert.Equal(t, models.SentimentUnsure, record.Sentiment)
	assert.Equal(t, "", record.TagsJoined)
}

func TestProcessor_FetchFailureRecorded(t *testing.T) {
	p := NewProcessor(WithClock(fixedClock))
	ref := models.PoemReference{URL: "https://poets.org/poem/b", Title: "Sheet B", Author: "Poet B"}

	fetchErr := &crawler.FetchError{URL: ref.URL, Attempts: 3, StatusCode: 503, Err: errors.New("unexpected status code: 503")}
	poem := crawler.PoemResult{Ref: ref, FetchErr: fetchErr, Error: fetchErr.Error()}

	record, err := p.Process(Input{Session: session("c1"), Reference: ref, Poem: poem, Draft: models.Draft{Sentiment: "neutral"}})
	require.NoError(t, err)

	assert.False(t, record.ExtractionOK)
	require.NotNil(t, record.Error)
	assert.Contains(t, *record.Error, "503")
	assert.Equal(t, "Sheet B", record.Title)
	assert.Equal(t, "Poet B", record.Author)
	assert.Nil(t, record.PoemUUID)
	assert.Empty(t, record.HTMLSHA1)
}

func TestProcessor_NothingLoaded(t *testing.T) {
	p := NewProcessor(WithClock(fixedClock))
	ref := models.PoemReference{URL: "https://poets.org/poem/c"}

	record, err := p.Process(Input{Session: session("c1"), Reference: ref})
	require.NoError(t, err)

	assert.False(t, record.ExtractionOK)
	assert.Equal(t, errNotLoaded, record.ErrorMessage())
}

func TestProcessor_ValidationErrors(t *testing.T) {
	ref := models.PoemReference{URL: "https://poets.org/poem/a"}

	tests := []struct {
		name    string
		in      Input
		wantErr error
	}{
		{"missing coder", Input{Session: session("  "), Reference: ref}, ErrMissingCoderID},
		{"missing url", Input{Session: session("c1")}, ErrMissingURL},
		{"bad sentiment", Input{Session: session("c1"), Reference: ref, Draft: models.Draft{Sentiment: "ecstatic"}}, models.ErrInvalidSentiment},
		{
			"mismatched poem",
			Input{Session: session("c1"), Reference: ref, Poem: crawler.PoemResult{Ref: models.PoemReference{URL: "https://other"}}},
			ErrPoemMismatch,
		},
	}

	p := NewProcessor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Process(tt.in)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Process() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransformer_TimestampsStrictlyIncrease(t *testing.T) {
	tr := NewTransformer(fixedClock, nil)
	ref := models.PoemReference{URL: "https://poets.org/poem/a"}

	first, err := tr.Transform(Input{Session: session("c1"), Reference: ref})
	require.NoError(t, err)

	second, err := tr.Transform(Input{Session: session("c1"), Reference: ref})
	require.NoError(t, err)

	assert.Less(t, first.TimestampISO, second.TimestampISO)
	assert.Equal(t, "2024-05-06T12:08:09.123456790Z", second.TimestampISO)
}
