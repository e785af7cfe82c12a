package extract

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	oe "github.com/artyom/oembed"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// fetchOembed retrieves and decodes the oEmbed payload at endpoint,
// using artyom/oembed's content-type-dispatching decoder exactly as
// the teacher's youtubeFetcher does for its hardcoded YouTube
// endpoint (here generalized to any discovered endpoint).
func fetchOembed(ctx context.Context, client *http.Client, endpoint string) (*oe.Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return oe.FromResponse(resp)
}

// mergeOembed overlays an oEmbed payload onto e, per spec.md §4.6 step
// 8: rich/video types populate an object/video media slot from the
// embedded iframe's src+type rather than the raw HTML snippet.
func mergeOembed(e *embedmodel.EmbedV1, m *oe.Metadata, base *url.URL) {
	if m == nil {
		return
	}
	if e.Title == "" {
		e.Title = m.Title
	}
	if e.Provider == nil && m.Provider != "" {
		e.Provider = &embedmodel.Provider{Name: m.Provider}
	}
	if e.Author == nil && m.AuthorName != "" {
		e.Author = &embedmodel.Author{Name: m.AuthorName, URL: m.AuthorURL}
	}
	if m.Thumbnail != "" && e.Thumb == nil {
		e.Thumb = &embedmodel.BasicMedia{URL: resolveURL(base, m.Thumbnail)}
		if m.ThumbnailWidth > 0 {
			w := m.ThumbnailWidth
			e.Thumb.Width = &w
		}
		if m.ThumbnailHeight > 0 {
			h := m.ThumbnailHeight
			e.Thumb.Height = &h
		}
	}

	switch m.Type {
	case oe.TypePhoto:
		if m.URL != "" {
			w, h := (*int)(nil), (*int)(nil)
			if m.Width > 0 {
				w = new(int)
				*w = m.Width
			}
			if m.Height > 0 {
				h = new(int)
				*h = m.Height
			}
			e.Imgs = append(e.Imgs, embedmodel.BasicMedia{URL: resolveURL(base, m.URL), Width: w, Height: h})
		}
	case oe.TypeVideo, oe.TypeRich:
		if src, typ, ok := extractEmbedSrc(m.HTML); ok {
			media := &embedmodel.BasicMedia{URL: resolveURL(base, src), MIME: typ}
			if strings.HasPrefix(typ, "video/") || m.Type == oe.TypeVideo {
				e.Video = media
			} else {
				e.Obj = media
			}
		}
	}
}

// extractEmbedSrc finds the first <iframe>/<embed> element in an
// oEmbed HTML snippet and returns its src and type attributes.
func extractEmbedSrc(snippet string) (src, typ string, ok bool) {
	z := html.NewTokenizer(strings.NewReader(snippet))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return "", "", false
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		switch atom.Lookup(name) {
		case atom.Iframe, atom.Embed:
			var s, t string
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				switch string(k) {
				case "src":
					s = string(v)
				case "type":
					t = string(v)
				}
			}
			if s != "" {
				return s, t, true
			}
		}
	}
}
