// Package extractor turns cached poem pages into structured metadata and text.
//
// Every field is extracted independently through the fields table. A field
// that cannot be located records a diagnostic and leaves its zero value; only
// a missing poem body marks the result as failed. Extract never returns an
// error and never panics.
package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"poemcoder/internal/logger"
	"poemcoder/internal/models"
	"poemcoder/pkg/utils"
)

// Selectors for the poets.org poem page layout.
const (
	selPoemArticle = `article[class*="card--poem-full"]`
	selAuthorField = `[class*="field--field_author"]`
	selThemesField = `[class*="field--field_poem_themes"]`
	selAboutField  = `[class*="field--field_about_this_poem"]`
	selCreditField = `[class*="field--field_credit"]`
	selBodyField   = `[class*="field--body"]`
	selJSONLD      = `script[type="application/ld+json"]`
)

var errNotFound = errors.New("not found")

// parseError is a per-field extraction failure. It never leaves this package
// as an error value; Extract folds it into Result diagnostics.
type parseError struct {
	Field string
	Err   error
}

func (e *parseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *parseError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one extraction.
type Result struct {
	Meta models.PoemMeta
	Text models.PoemText
	OK   bool
	// Error is a human-readable diagnostic, set when OK is false.
	Error string
	// FieldErrors holds per-field diagnostics for optional fields that were not found.
	FieldErrors map[string]string
}

// MissingFields lists optional fields that could not be located, sorted.
func (r Result) MissingFields() []string {
	names := make([]string, 0, len(r.FieldErrors))
	for name := range r.FieldErrors {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// field is one entry of the extraction mapping.
type field struct {
	name     string
	required bool
	extract  func(p *page, out *Result) error
}

// fields runs in order; later strategies may read values set by earlier ones.
var fields = []field{
	{name: "canonical_url", extract: extractCanonical},
	{name: "poem_uuid", extract: extractUUID},
	{name: "title", extract: extractTitle},
	{name: "author", extract: extractAuthor},
	{name: "themes", extract: extractThemes},
	{name: "about", extract: extractAbout},
	{name: "is_public_domain", extract: extractPublicDomain},
	{name: "date_published", extract: extractDatePublished},
	{name: "date_modified", extract: extractDateModified},
	{name: "body", required: true, extract: extractBody},
}

// Extractor parses poem pages.
type Extractor struct {
	logger  *logger.Logger
	strings *utils.StringHelper
}

// New creates an extractor. A nil logger discards diagnostics.
func New(log *logger.Logger) *Extractor {
	if log == nil {
		log = logger.Nop()
	}

	return &Extractor{
		logger:  log,
		strings: utils.NewStringHelper(),
	}
}

// Extract parses html. Partial extraction is success; OK is false only when
// the poem body cannot be located.
func (x *Extractor) Extract(html []byte) (res Result) {
	res.Meta.Themes = []string{}

	defer func() {
		if r := recover(); r != nil {
			res.OK = false
			res.Error = fmt.Sprintf("extraction aborted: %v", r)
			x.logger.Error("extractor panic recovered", "panic", r)
		}
	}()

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		res.Error = (&parseError{Field: "document", Err: err}).Error()
		return res
	}

	p := newPage(doc, x.strings)
	res.OK = true

	var failures []string

	for _, f := range fields {
		err := f.extract(p, &res)
		if err == nil {
			continue
		}

		perr := &parseError{Field: f.name, Err: err}

		if f.required {
			res.OK = false
			failures = append(failures, perr.Error())

			continue
		}

		if res.FieldErrors == nil {
			res.FieldErrors = make(map[string]string)
		}

		res.FieldErrors[f.name] = err.Error()
	}

	res.Error = strings.Join(failures, "; ")

	x.logger.Debug("poem extracted",
		"title", res.Meta.Title,
		"ok", res.OK,
		"stanzas", len(res.Text.Stanzas),
		"missing", strings.Join(res.MissingFields(), ","),
	)

	return res
}

// page holds the parsed document and the lazily decoded JSON-LD nodes.
type page struct {
	doc     *goquery.Document
	poem    *goquery.Selection
	strings *utils.StringHelper

	ldLoaded bool
	ld       []map[string]any
}

func newPage(doc *goquery.Document, sh *utils.StringHelper) *page {
	return &page{
		doc:     doc,
		poem:    doc.Find(selPoemArticle).First(),
		strings: sh,
	}
}

// hasPoem reports whether the poem article container exists.
func (p *page) hasPoem() bool {
	return p.poem.Length() > 0
}

// scope returns the poem container, or the whole document when it is missing.
func (p *page) scope() *goquery.Selection {
	if p.hasPoem() {
		return p.poem
	}

	return p.doc.Selection
}

func (p *page) clean(s string) string {
	return p.strings.NormalizeWhitespace(p.strings.CleanText(s))
}

func (p *page) metaContent(selector string) string {
	v, _ := p.doc.Find(selector).First().Attr("content")

	return strings.TrimSpace(v)
}
