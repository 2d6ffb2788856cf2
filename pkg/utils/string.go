package utils

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// entityReplacer fixes entities that survive double-escaped page content.
var entityReplacer = strings.NewReplacer(
	"&nbsp;", " ",
	"&#8217;", "’",
	"&#8216;", "‘",
	"&#8220;", "“",
	"&#8221;", "”",
	"&#8212;", "—",
	"&#8211;", "–",
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
)

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// CleanText decodes leftover entities and trims surrounding whitespace.
func (s *StringHelper) CleanText(str string) string {
	if str == "" {
		return ""
	}

	return strings.TrimSpace(entityReplacer.Replace(str))
}

// TrimWhitespace removes leading and trailing whitespace.
func (s *StringHelper) TrimWhitespace(str string) string {
	return strings.TrimSpace(str)
}

// NormalizeWhitespace replaces multiple whitespace with single space.
func (s *StringHelper) NormalizeWhitespace(str string) string {
	return strings.Join(strings.Fields(str), " ")
}

// TruncateString truncates str to maxWidth display columns, adding "..." when cut.
func (s *StringHelper) TruncateString(str string, maxWidth int) string {
	if runewidth.StringWidth(str) <= maxWidth {
		return str
	}

	return runewidth.Truncate(str, maxWidth, "...")
}
