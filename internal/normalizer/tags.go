package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"poemcoder/internal/models"
)

// ErrUnknownTagSet is returned by TagSet for names other than top20, top50 and all.
var ErrUnknownTagSet = errors.New("unknown tag set")

// Tag set names.
const (
	TagSetTop20 = "top20"
	TagSetTop50 = "top50"
	TagSetAll   = "all"
)

var top20Tags = []string{
	"nature", "body", "death", "love", "existential", "identity", "self",
	"beauty", "america", "loss", "animals", "history", "memories", "family",
	"writing", "ancestry", "thought", "landscapes", "war", "time",
}

var next30Tags = []string{
	"religion", "grief", "violence", "aging", "childhood", "desire", "night", "mothers",
	"language", "birds", "social justice", "music", "flowers", "politics",
	"hope", "heartache", "fathers", "gender", "environment", "spirituality",
	"loneliness", "oceans", "dreams", "survival", "cities", "earth", "despair",
	"anxiety", "weather", "illness", "home",
}

var corpusTailTags = []string{
	"past", "myth", "travel", "sadness", "lgbtq", "mourning", "work", "future",
	"plants", "afterlife", "happiness", "romance", "sex", "eating", "love, contemporary",
	"beginning", "creation", "turmoil", "friendship", "parenting", "pastoral",
	"lust", "immigration", "daughters", "anger", "nostalgia", "ambition",
	"migration", "space", "carpe diem", "ghosts", "marriage", "reading",
	"popular culture", "economy", "tragedy", "drinking", "clothing", "sons",
	"gun violence", "americana", "buildings", "money", "silence", "gardens",
	"rebellion", "new york city", "heroes", "science", "gratitude",
	"storms", "deception", "technology", "slavery", "cooking", "apocalypse",
	"humor", "dance", "doubt", "regret", "flight", "sports",
	"national parks", "school", "oblivion", "dogs", "suffrage",
	"old age", "drugs", "teaching", "innocence", "sisters", "enemies", "brothers",
	"covid-19", "math", "american revolution", "incarceration", "pets", "underworld",
	"pacifism", "divorce", "suburbia", "theft", "patience", "movies", "civil war",
	"cats", "moving", "luck", "miracles", "jealousy", "vanity", "infidelity", "high school",
}

// TagSet returns a fresh copy of a built-in tag vocabulary.
func TagSet(name string) ([]string, error) {
	var parts [][]string

	switch strings.ToLower(strings.TrimSpace(name)) {
	case TagSetTop20, "":
		parts = [][]string{top20Tags}
	case TagSetTop50:
		parts = [][]string{top20Tags, next30Tags}
	case TagSetAll:
		parts = [][]string{top20Tags, next30Tags, corpusTailTags}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTagSet, name)
	}

	var tags []string
	for _, p := range parts {
		tags = append(tags, p...)
	}

	return tags, nil
}

// tagSplitter matches free-text separators: comma or semicolon, or a run of two or more spaces.
var tagSplitter = regexp.MustCompile(`[,;]\s*|\s{2,}`)

// NormalizeTags splits free-text tag input and normalizes each tag against base.
func NormalizeTags(input string, base []string) []string {
	n := newTagNormalizer(base)
	n.addText(input)

	return n.tags
}

// tagNormalizer de-duplicates case-insensitively across several inputs.
type tagNormalizer struct {
	base map[string]string
	seen map[string]bool
	tags []string
}

func newTagNormalizer(base []string) *tagNormalizer {
	n := &tagNormalizer{
		base: make(map[string]string, len(base)),
		seen: make(map[string]bool),
		tags: []string{},
	}

	for _, tag := range base {
		key := strings.ToLower(strings.TrimSpace(tag))
		if _, ok := n.base[key]; !ok {
			n.base[key] = tag
		}
	}

	return n
}

// addText splits free text on the tag separators.
func (n *tagNormalizer) addText(input string) {
	for _, tag := range tagSplitter.Split(strings.TrimSpace(input), -1) {
		n.add(tag)
	}
}

// addList adds already separated tags. Only the storage delimiter splits them further.
func (n *tagNormalizer) addList(tags []string) {
	for _, tag := range tags {
		for _, part := range strings.Split(tag, models.TagDelimiter) {
			n.add(part)
		}
	}
}

func (n *tagNormalizer) add(tag string) {
	key := strings.ToLower(strings.TrimSpace(tag))
	if key == "" || n.seen[key] {
		return
	}

	n.seen[key] = true

	if canonical, ok := n.base[key]; ok {
		n.tags = append(n.tags, canonical)
		return
	}

	n.tags = append(n.tags, capitalize(key))
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
