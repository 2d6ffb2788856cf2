// Package normalizer turns a coder's draft annotation into an immutable coding record.
package normalizer

import (
	"fmt"
	"time"

	"poemcoder/internal/crawler"
	"poemcoder/internal/models"
)

// Input is everything a save needs.
type Input struct {
	Session   models.SessionContext
	Reference models.PoemReference
	Poem      crawler.PoemResult
	Draft     models.Draft
}

// Processor validates and transforms save requests.
type Processor struct {
	validator   *Validator
	transformer *Transformer
}

// Option configures a Processor.
type Option func(*options)

type options struct {
	now      func() time.Time
	baseTags []string
}

// WithClock sets the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithBaseTags sets the vocabulary used for tag spelling.
func WithBaseTags(tags []string) Option {
	return func(o *options) { o.baseTags = tags }
}

// NewProcessor creates a new processor instance. The default vocabulary is the top20 set.
func NewProcessor(opts ...Option) *Processor {
	o := options{now: time.Now}
	o.baseTags, _ = TagSet(TagSetTop20)

	for _, opt := range opts {
		opt(&o)
	}

	return &Processor{
		validator:   NewValidator(),
		transformer: NewTransformer(o.now, o.baseTags),
	}
}

// Process validates in and builds its record.
func (p *Processor) Process(in Input) (models.CodingRecord, error) {
	if err := p.validator.Validate(in); err != nil {
		return models.CodingRecord{}, fmt.Errorf("validation failed: %w", err)
	}

	record, err := p.transformer.Transform(in)
	if err != nil {
		return models.CodingRecord{}, fmt.Errorf("transformation failed: %w", err)
	}

	return record, nil
}
