// Package models defines data structures shared by the fetcher, extractor and record store.
package models

import "strings"

// PoemReference is one worklist entry resolved from the input table.
type PoemReference struct {
	URL    string `json:"url"`
	Title  string `json:"title,omitempty"`
	Author string `json:"author,omitempty"`
	Row    int    `json:"row,omitempty"`
}

// TriState is a boolean that can also be unknown.
type TriState int

// TriState values.
const (
	Unknown TriState = iota
	True
	False
)

// TriStateOf converts a plain bool.
func TriStateOf(b bool) TriState {
	if b {
		return True
	}

	return False
}

// Known reports whether the value is true or false.
func (t TriState) Known() bool {
	return t == True || t == False
}

// String returns "true", "false" or "unknown".
func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalText encodes the tri-state as its string form.
func (t TriState) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts "true", "false" and anything else as unknown.
func (t *TriState) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "true":
		*t = True
	case "false":
		*t = False
	default:
		*t = Unknown
	}

	return nil
}

// Author is the byline of a poem.
type Author struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profileUrl,omitempty"`
}

// PoemMeta holds the metadata extracted from a poem page. Every field is optional.
type PoemMeta struct {
	CanonicalURL   string   `json:"canonicalUrl,omitempty"`
	PoemUUID       string   `json:"poemUuid,omitempty"`
	Title          string   `json:"title,omitempty"`
	Author         Author   `json:"author"`
	Themes         []string `json:"themes"`
	DatePublished  string   `json:"datePublished,omitempty"`
	DateModified   string   `json:"dateModified,omitempty"`
	About          string   `json:"about,omitempty"`
	IsPublicDomain TriState `json:"isPublicDomain"`
}

// Stanza is an ordered run of poem lines.
type Stanza []string

// PoemText is the body of a poem split into stanzas.
type PoemText struct {
	Stanzas []Stanza `json:"stanzas"`
	RawHTML string   `json:"-"`
}

// String joins lines with a newline and stanzas with a blank line.
func (p PoemText) String() string {
	parts := make([]string, 0, len(p.Stanzas))
	for _, stanza := range p.Stanzas {
		parts = append(parts, strings.Join(stanza, "\n"))
	}

	return strings.Join(parts, "\n\n")
}

// LineCount returns the number of stored lines.
func (p PoemText) LineCount() int {
	n := 0
	for _, stanza := range p.Stanzas {
		n += len(stanza)
	}

	return n
}

// IsEmpty reports whether no line was extracted.
func (p PoemText) IsEmpty() bool {
	return p.LineCount() == 0
}

// SplitStanzas groups lines into stanzas. Whitespace-only lines are
// boundaries and are dropped; consecutive boundaries collapse.
func SplitStanzas(lines []string) []Stanza {
	var stanzas []Stanza

	var current Stanza

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				stanzas = append(stanzas, current)
				current = nil
			}

			continue
		}

		current = append(current, line)
	}

	if len(current) > 0 {
		stanzas = append(stanzas, current)
	}

	return stanzas
}
