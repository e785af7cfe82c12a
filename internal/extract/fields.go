package extract

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// parseFieldSelector splits a `sites.*.fields` value into a CSS
// selector and an optional trailing "< attribute" clause, the same
// config syntax the original service's selector config used: a bare
// selector pulls text content, "selector < attr" pulls an attribute.
func parseFieldSelector(raw string) (selector, attribute string) {
	if i := strings.LastIndexByte(raw, '<'); i >= 0 {
		attr := strings.TrimSpace(raw[i+1:])
		if attr != "" && !strings.ContainsAny(attr, `'"`) {
			return strings.TrimSpace(raw[:i]), attr
		}
	}
	return strings.TrimSpace(raw), ""
}

// extractField runs one configured selector against doc, concatenating
// text (or a named attribute) across every match. Reports false when
// the selector is empty, invalid, matches nothing, or yields only
// whitespace.
func extractField(doc *goquery.Document, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	selector, attribute := parseFieldSelector(raw)
	if selector == "" {
		return "", false
	}
	sel := doc.Find(selector)
	if sel.Length() == 0 {
		return "", false
	}
	var out strings.Builder
	sel.Each(func(_ int, s *goquery.Selection) {
		if attribute != "" {
			if v, ok := s.Attr(attribute); ok {
				out.WriteString(v)
			}
			return
		}
		out.WriteString(s.Text())
	})
	val := strings.TrimSpace(out.String())
	if val == "" {
		return "", false
	}
	return val, true
}

func extractFieldInt(doc *goquery.Document, raw string) (int, bool) {
	v, ok := extractField(doc, raw)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// applyFieldSelectors fills still-empty title/description/image/author/
// provider slots from a site's configured CSS field selectors, spec.md
// §4.6 step 7's "if a site has configured CSS field selectors, apply
// them as fallback". Grounded on the original service's
// extractors/generic/scrape_fields.rs, which walks the same fixed set
// of named selectors and only ever fills fields the generic parser
// left empty.
func applyFieldSelectors(html []byte, e *embedmodel.EmbedV1, fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return
	}

	if e.Title == "" {
		if v, ok := extractField(doc, fields["title"]); ok {
			e.Title = v
		}
	}
	if e.Description == "" {
		if v, ok := extractField(doc, fields["description"]); ok {
			e.Description = v
		}
	}

	applyImageFieldSelectors(doc, e, fields)
	applyAuthorFieldSelectors(doc, e, fields)
	applyProviderFieldSelectors(doc, e, fields)
}

func applyImageFieldSelectors(doc *goquery.Document, e *embedmodel.EmbedV1, fields map[string]string) {
	if len(e.Imgs) == 0 {
		imageURL, ok := extractField(doc, fields["image_url"])
		if !ok {
			return
		}
		media := embedmodel.BasicMedia{URL: imageURL}
		if v, ok := extractField(doc, fields["image_alt"]); ok {
			media.Description = v
		}
		if v, ok := extractFieldInt(doc, fields["image_width"]); ok {
			media.Width = &v
		}
		if v, ok := extractFieldInt(doc, fields["image_height"]); ok {
			media.Height = &v
		}
		e.Imgs = append(e.Imgs, media)
		return
	}

	img := &e.Imgs[0]
	if img.Description == "" {
		if v, ok := extractField(doc, fields["image_alt"]); ok {
			img.Description = v
		}
	}
	if img.Width == nil {
		if v, ok := extractFieldInt(doc, fields["image_width"]); ok {
			img.Width = &v
		}
	}
	if img.Height == nil {
		if v, ok := extractFieldInt(doc, fields["image_height"]); ok {
			img.Height = &v
		}
	}
}

func applyAuthorFieldSelectors(doc *goquery.Document, e *embedmodel.EmbedV1, fields map[string]string) {
	if e.Author == nil {
		name, ok := extractField(doc, fields["author_name"])
		if !ok {
			return
		}
		author := &embedmodel.Author{Name: name}
		if v, ok := extractField(doc, fields["author_url"]); ok {
			author.URL = v
		}
		author.Icon = buildIconField(doc, fields, "author_icon", "author_icon_alt", "author_icon_width", "author_icon_height")
		e.Author = author
		return
	}

	if e.Author.URL == "" {
		if v, ok := extractField(doc, fields["author_url"]); ok {
			e.Author.URL = v
		}
	}
	if e.Author.Icon == nil {
		e.Author.Icon = buildIconField(doc, fields, "author_icon", "author_icon_alt", "author_icon_width", "author_icon_height")
	} else {
		fillIconField(doc, e.Author.Icon, fields, "author_icon_alt", "author_icon_width", "author_icon_height")
	}
}

func applyProviderFieldSelectors(doc *goquery.Document, e *embedmodel.EmbedV1, fields map[string]string) {
	if e.Provider == nil {
		e.Provider = &embedmodel.Provider{}
	}
	if e.Provider.Name == "" {
		if v, ok := extractField(doc, fields["provider_name"]); ok {
			e.Provider.Name = v
		}
	}
	if e.Provider.URL == "" {
		if v, ok := extractField(doc, fields["provider_url"]); ok {
			e.Provider.URL = v
		}
	}
	if e.Provider.Icon == nil {
		e.Provider.Icon = buildIconField(doc, fields, "provider_icon", "provider_icon_alt", "provider_icon_width", "provider_icon_height")
	} else {
		fillIconField(doc, e.Provider.Icon, fields, "provider_icon_alt", "provider_icon_width", "provider_icon_height")
	}
	if e.Provider.Name == "" && e.Provider.URL == "" && e.Provider.Icon == nil {
		e.Provider = nil
	}
}

func buildIconField(doc *goquery.Document, fields map[string]string, urlKey, altKey, widthKey, heightKey string) *embedmodel.BasicMedia {
	iconURL, ok := extractField(doc, fields[urlKey])
	if !ok {
		return nil
	}
	media := &embedmodel.BasicMedia{URL: iconURL}
	fillIconField(doc, media, fields, altKey, widthKey, heightKey)
	return media
}

func fillIconField(doc *goquery.Document, media *embedmodel.BasicMedia, fields map[string]string, altKey, widthKey, heightKey string) {
	if media.Description == "" {
		if v, ok := extractField(doc, fields[altKey]); ok {
			media.Description = v
		}
	}
	if media.Width == nil {
		if v, ok := extractFieldInt(doc, fields[widthKey]); ok {
			media.Width = &v
		}
	}
	if media.Height == nil {
		if v, ok := extractFieldInt(doc, fields[heightKey]); ok {
			media.Height = &v
		}
	}
}
