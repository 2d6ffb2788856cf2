// Package coding is the session API an annotation UI drives: resume, show the
// current poem, save a draft and move on.
package coding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"poemcoder/internal/crawler"
	"poemcoder/internal/logger"
	"poemcoder/internal/models"
	"poemcoder/internal/normalizer"
	"poemcoder/internal/progress"
)

// Session errors.
var (
	ErrSessionDone     = errors.New("every poem in the worklist is complete")
	ErrIndexOutOfRange = errors.New("worklist index out of range")
	ErrEmptyWorklist   = errors.New("worklist is empty")
)

// RecordStore is the persistence the service needs. *store.Store satisfies it.
type RecordStore interface {
	Append(record models.CodingRecord) error
	LatestFor(coderID, url string) (models.CodingRecord, bool, error)
}

// Service wires the pipeline client, the normalizer, the store and the tracker.
type Service struct {
	client    *crawler.Client
	processor *normalizer.Processor
	store     RecordStore
	tracker   *progress.Tracker
	logger    *logger.Logger
}

// NewService creates a coding service.
func NewService(client *crawler.Client, processor *normalizer.Processor, st RecordStore, tracker *progress.Tracker, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}

	return &Service{
		client:    client,
		processor: processor,
		store:     st,
		tracker:   tracker,
		logger:    log,
	}
}

// Start opens a session for coderID positioned on the first unfinished poem.
func (s *Service) Start(coderID string, worklist []models.PoemReference) (models.SessionContext, error) {
	coderID = strings.TrimSpace(coderID)
	if coderID == "" {
		return models.SessionContext{}, progress.ErrMissingCoderID
	}

	if len(worklist) == 0 {
		return models.SessionContext{}, ErrEmptyWorklist
	}

	sess := models.SessionContext{
		SessionID: uuid.NewString(),
		CoderID:   coderID,
		Worklist:  worklist,
	}

	sess, err := s.tracker.Resume(sess)
	if err != nil {
		return sess, fmt.Errorf("failed to resume session: %w", err)
	}

	s.logger.Info("session started", "session", sess.SessionID, "coder", coderID,
		"cursor", sess.Cursor, "poems", len(worklist))

	return sess, nil
}

// Current fetches and extracts the poem under the cursor. A fetch failure is
// reported through PoemResult.FetchErr, not as an error.
func (s *Service) Current(ctx context.Context, sess models.SessionContext) (crawler.PoemResult, error) {
	ref, ok := sess.Current()
	if !ok {
		return crawler.PoemResult{}, ErrSessionDone
	}

	return s.client.Process(ctx, ref), nil
}

// Reload refetches the poem under the cursor from the network.
func (s *Service) Reload(ctx context.Context, sess models.SessionContext) (crawler.PoemResult, error) {
	ref, ok := sess.Current()
	if !ok {
		return crawler.PoemResult{}, ErrSessionDone
	}

	s.logger.Info("reloading poem", "session", sess.SessionID, "url", ref.URL)

	return s.client.Reload(ctx, ref), nil
}

// Existing returns the coder's latest record for the poem under the cursor.
func (s *Service) Existing(sess models.SessionContext) (models.CodingRecord, bool, error) {
	ref, ok := sess.Current()
	if !ok {
		return models.CodingRecord{}, false, ErrSessionDone
	}

	return s.store.LatestFor(sess.CoderID, ref.URL)
}

// Save appends a record for the poem under the cursor. A complete save moves
// the cursor to the next unfinished poem; otherwise the cursor stays.
func (s *Service) Save(ctx context.Context, sess models.SessionContext, poem crawler.PoemResult, draft models.Draft) (models.SessionContext, models.CodingRecord, error) {
	if err := ctx.Err(); err != nil {
		return sess, models.CodingRecord{}, err
	}

	ref, ok := sess.Current()
	if !ok {
		return sess, models.CodingRecord{}, ErrSessionDone
	}

	record, err := s.processor.Process(normalizer.Input{
		Session:   sess,
		Reference: ref,
		Poem:      poem,
		Draft:     draft,
	})
	if err != nil {
		return sess, models.CodingRecord{}, err
	}

	if err := s.store.Append(record); err != nil {
		return sess, models.CodingRecord{}, fmt.Errorf("failed to save coding: %w", err)
	}

	s.logger.Info("coding saved", "session", sess.SessionID, "coder", record.CoderID,
		"url", record.URL, "complete", record.IsComplete, "extraction_ok", record.ExtractionOK)

	if !record.IsComplete {
		return sess, record, nil
	}

	next, err := s.tracker.Resume(sess)
	if err != nil {
		return sess, record, fmt.Errorf("saved, but failed to find next poem: %w", err)
	}

	return next, record, nil
}

// Goto moves the cursor to index.
func (s *Service) Goto(sess models.SessionContext, index int) (models.SessionContext, error) {
	if index < 0 || index >= len(sess.Worklist) {
		return sess, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, index, len(sess.Worklist))
	}

	sess.Cursor = index

	return sess, nil
}

// Stats returns the session coder's progress.
func (s *Service) Stats(sess models.SessionContext) (progress.Stats, error) {
	return s.tracker.Stats(sess.CoderID, sess.Worklist)
}
