package extractor

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// articles returns JSON-LD Article nodes from object, array and @graph forms.
func (p *page) articles() []map[string]any {
	if p.ldLoaded {
		return p.ld
	}

	p.ldLoaded = true

	p.doc.Find(selJSONLD).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}

		for _, node := range flattenLD(data) {
			if isArticle(node["@type"]) {
				p.ld = append(p.ld, node)
			}
		}
	})

	return p.ld
}

func flattenLD(data any) []map[string]any {
	var nodes []map[string]any

	switch v := data.(type) {
	case []any:
		for _, item := range v {
			nodes = append(nodes, flattenLD(item)...)
		}
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			nodes = append(nodes, flattenLD(graph)...)
		} else {
			nodes = append(nodes, v)
		}
	}

	return nodes
}

func isArticle(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "Article"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "Article" {
				return true
			}
		}
	}

	return false
}

// ldString returns the first non-empty string value of key across Article nodes.
func (p *page) ldString(key string) string {
	for _, node := range p.articles() {
		if s, ok := node[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}

	return ""
}

// ldAuthor reads author as a string, an object with name, or the first of a list.
func (p *page) ldAuthor() string {
	for _, node := range p.articles() {
		if name := authorName(node["author"]); name != "" {
			return name
		}
	}

	return ""
}

func authorName(v any) string {
	switch a := v.(type) {
	case string:
		return a
	case map[string]any:
		if name, ok := a["name"].(string); ok {
			return name
		}
	case []any:
		for _, item := range a {
			if name := authorName(item); name != "" {
				return name
			}
		}
	}

	return ""
}

// descriptionLines splits a JSON-LD description, which may carry escaped newlines.
func descriptionLines(desc string) []string {
	desc = strings.ReplaceAll(desc, `\n`, "\n")
	desc = strings.ReplaceAll(desc, "\r\n", "\n")

	lines := strings.Split(desc, "\n")
	for i, line := range lines {
		lines[i] = finishLine(line)
	}

	return lines
}
