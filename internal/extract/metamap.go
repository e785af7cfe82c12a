package extract

import (
	"sort"
	"strconv"
	"strings"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// metaDraft is the intermediate result of mapping a scanned HTML
// document's <meta>/<link>/<title> observations onto embed fields,
// before relative-URL resolution (spec.md §4.6 step 10) has run.
type metaDraft struct {
	Title        string
	Description  string
	ProviderName string
	Canonical    string
	OGImage      string
	TwitterImage string
	IconHref     string
	ManifestHref string
	OembedHref   string
	OembedIsJSON bool
	Adult        bool
	Fields       []embedmodel.Field
}

// mapMeta applies spec.md §4.6's meta -> embed mapping rules: OG takes
// priority over Twitter card tags, which take priority over the bare
// <title>/description fallback; OG image is never overwritten by a
// non-empty twitter:image.
func mapMeta(res *scanResult) metaDraft {
	var d metaDraft
	var fallbackTitle, twitterTitle string
	var fallbackDescription, twitterDescription string
	labels := map[int]string{}
	data := map[int]string{}

	for _, m := range res.Metas {
		switch m.Kind {
		case "title":
			fallbackTitle = m.Content
		case "property":
			switch m.Property {
			case "og:title":
				d.Title = m.Content
			case "og:description":
				d.Description = m.Content
			case "og:image", "og:image:url":
				if d.OGImage == "" {
					d.OGImage = m.Content
				}
			case "og:site_name":
				d.ProviderName = m.Content
			case "og:url":
				if d.Canonical == "" {
					d.Canonical = m.Content
				}
			}
		case "name":
			switch {
			case m.Property == "description":
				fallbackDescription = m.Content
			case m.Property == "twitter:title":
				twitterTitle = m.Content
			case m.Property == "twitter:description":
				twitterDescription = m.Content
			case m.Property == "twitter:image" || m.Property == "twitter:image:src":
				if d.TwitterImage == "" {
					d.TwitterImage = m.Content
				}
			case strings.HasPrefix(m.Property, "twitter:label"):
				if n, err := strconv.Atoi(strings.TrimPrefix(m.Property, "twitter:label")); err == nil {
					labels[n] = m.Content
				}
			case strings.HasPrefix(m.Property, "twitter:data"):
				if n, err := strconv.Atoi(strings.TrimPrefix(m.Property, "twitter:data")); err == nil {
					data[n] = m.Content
				}
			}
		case "itemprop":
			if m.Property == "isFamilyFriendly" && strings.EqualFold(m.Content, "false") {
				d.Adult = true
			}
			if m.Property == "description" && fallbackDescription == "" {
				fallbackDescription = m.Content
			}
		}
	}

	if d.Title == "" {
		d.Title = twitterTitle
	}
	if d.Title == "" {
		d.Title = fallbackTitle
	}
	if d.Description == "" {
		d.Description = twitterDescription
	}
	if d.Description == "" {
		d.Description = fallbackDescription
	}
	if d.OGImage == "" && d.TwitterImage != "" {
		d.OGImage = d.TwitterImage
	}

	var idxs []int
	for n := range labels {
		if _, ok := data[n]; ok {
			idxs = append(idxs, n)
		}
	}
	sort.Ints(idxs)
	for _, n := range idxs {
		d.Fields = append(d.Fields, embedmodel.Field{Name: labels[n], Value: data[n]})
	}

	for _, l := range res.Links {
		switch strings.ToLower(l.Rel) {
		case "canonical":
			if d.Canonical == "" {
				d.Canonical = l.Href
			}
		case "icon", "shortcut icon":
			if d.IconHref == "" {
				d.IconHref = l.Href
			}
		case "manifest":
			d.ManifestHref = l.Href
		case "alternate":
			switch strings.ToLower(l.Type) {
			case "application/json+oembed":
				d.OembedHref, d.OembedIsJSON = l.Href, true
			case "text/xml+oembed":
				if d.OembedHref == "" {
					d.OembedHref = l.Href
				}
			}
		}
	}

	return d
}
