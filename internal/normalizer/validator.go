package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"poemcoder/internal/models"
)

// Validation errors.
var (
	ErrMissingCoderID = errors.New("coder id is required")
	ErrMissingURL     = errors.New("poem url is required")
	ErrPoemMismatch   = errors.New("poem result belongs to a different url")
)

// Validator checks a save request before it becomes a record.
type Validator struct{}

// NewValidator creates a new validator instance.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks coder, url and sentiment.
func (v *Validator) Validate(in Input) error {
	if strings.TrimSpace(in.Session.CoderID) == "" {
		return ErrMissingCoderID
	}

	url := strings.TrimSpace(in.Reference.URL)
	if url == "" {
		return ErrMissingURL
	}

	if in.Poem.Ref.URL != "" && strings.TrimSpace(in.Poem.Ref.URL) != url {
		return fmt.Errorf("%w: %s != %s", ErrPoemMismatch, in.Poem.Ref.URL, url)
	}

	if _, err := parseSentiment(in.Draft.Sentiment); err != nil {
		return err
	}

	return nil
}

// parseSentiment maps an empty value to unsure.
func parseSentiment(s string) (models.Sentiment, error) {
	if strings.TrimSpace(s) == "" {
		return models.SentimentUnsure, nil
	}

	return models.ParseSentiment(s)
}
