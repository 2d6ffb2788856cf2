package extractor

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"poemcoder/internal/models"
)

func extractCanonical(p *page, out *Result) error {
	if href, ok := p.doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
		out.Meta.CanonicalURL = strings.TrimSpace(href)
		return nil
	}

	if og := p.metaContent(`meta[property="og:url"]`); og != "" {
		out.Meta.CanonicalURL = og
		return nil
	}

	return errNotFound
}

func extractUUID(p *page, out *Result) error {
	if !p.hasPoem() {
		return errors.New("poem container not found")
	}

	uuid, ok := p.poem.Attr("data-poem-uuid")
	if !ok || strings.TrimSpace(uuid) == "" {
		return errNotFound
	}

	out.Meta.PoemUUID = strings.TrimSpace(uuid)

	return nil
}

func extractTitle(p *page, out *Result) error {
	if p.hasPoem() {
		if title := p.clean(p.poem.Find("h1").First().Text()); title != "" {
			out.Meta.Title = title
			return nil
		}
	}

	if headline := p.clean(p.ldString("headline")); headline != "" {
		out.Meta.Title = headline
		return nil
	}

	if og := p.clean(p.metaContent(`meta[property="og:title"]`)); og != "" {
		out.Meta.Title = og
		return nil
	}

	return errNotFound
}

func extractAuthor(p *page, out *Result) error {
	authorField := p.scope().Find(selAuthorField).First()
	if authorField.Length() > 0 {
		link := authorField.Find("a[data-byline-author-name]").First()
		if link.Length() == 0 {
			link = authorField.Find("a").First()
		}

		if link.Length() > 0 {
			out.Meta.Author.Name = p.clean(link.Text())
			if href, ok := link.Attr("href"); ok {
				out.Meta.Author.ProfileURL = resolve(out.Meta.CanonicalURL, href)
			}
		} else {
			out.Meta.Author.Name = p.clean(authorField.Text())
		}

		if out.Meta.Author.Name != "" {
			return nil
		}
	}

	if name := p.clean(p.ldAuthor()); name != "" {
		out.Meta.Author.Name = name
		return nil
	}

	return errNotFound
}

func extractThemes(p *page, out *Result) error {
	themesField := p.scope().Find(selThemesField).First()
	if themesField.Length() == 0 {
		return errNotFound
	}

	themesField.Find("a").Each(func(_ int, s *goquery.Selection) {
		if theme := p.clean(s.Text()); theme != "" {
			out.Meta.Themes = append(out.Meta.Themes, theme)
		}
	})

	if len(out.Meta.Themes) == 0 {
		return errors.New("themes field has no entries")
	}

	return nil
}

func extractAbout(p *page, out *Result) error {
	aboutField := p.scope().Find(selAboutField).First()
	if aboutField.Length() == 0 {
		return errNotFound
	}

	content := aboutField
	if items := aboutField.Find(".field__item"); items.Length() > 0 {
		content = items
	}

	var paragraphs []string

	content.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := p.clean(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	if len(paragraphs) == 0 {
		if text := p.clean(content.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	if len(paragraphs) == 0 {
		return errors.New("about field is empty")
	}

	out.Meta.About = strings.Join(paragraphs, "\n\n")

	return nil
}

func extractPublicDomain(p *page, out *Result) error {
	credit := p.scope().Find(selCreditField).First()
	if credit.Length() == 0 {
		out.Meta.IsPublicDomain = models.Unknown
		return errNotFound
	}

	out.Meta.IsPublicDomain = models.TriStateOf(strings.Contains(strings.ToLower(credit.Text()), "public domain"))

	return nil
}

func extractDatePublished(p *page, out *Result) error {
	if v := p.ldString("datePublished"); v != "" {
		out.Meta.DatePublished = v
		return nil
	}

	if v := p.metaContent(`meta[property="article:published_time"]`); v != "" {
		out.Meta.DatePublished = v
		return nil
	}

	return errNotFound
}

func extractDateModified(p *page, out *Result) error {
	if v := p.ldString("dateModified"); v != "" {
		out.Meta.DateModified = v
		return nil
	}

	if v := p.metaContent(`meta[property="article:modified_time"]`); v != "" {
		out.Meta.DateModified = v
		return nil
	}

	return errNotFound
}

func extractBody(p *page, out *Result) error {
	body := p.scope().Find(selBodyField).First()

	if body.Length() > 0 {
		stanzas := models.SplitStanzas(bodyLines(body.Nodes[0]))
		if len(stanzas) > 0 {
			raw, _ := goquery.OuterHtml(body)
			out.Text = models.PoemText{Stanzas: stanzas, RawHTML: raw}

			return nil
		}
	}

	if desc := p.ldString("description"); desc != "" {
		if stanzas := models.SplitStanzas(descriptionLines(p.strings.CleanText(desc))); len(stanzas) > 0 {
			out.Text = models.PoemText{Stanzas: stanzas}
			return nil
		}
	}

	switch {
	case body.Length() > 0:
		return errors.New("poem body container is empty")
	case !p.hasPoem():
		return fmt.Errorf("poem body not found: page has no %s container and no JSON-LD description", selPoemArticle)
	default:
		return errors.New("poem body not found: no field--body element in the poem container")
	}
}

// resolve makes href absolute against base when both parse.
func resolve(base, href string) string {
	href = strings.TrimSpace(href)
	if base == "" || href == "" {
		return href
	}

	b, err := url.Parse(base)
	if err != nil {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return b.ResolveReference(ref).String()
}
