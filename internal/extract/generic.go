package extract

import (
	"context"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/normalize"
	"github.com/riverlink/embedsvc/internal/svcerr"
)

const defaultTTL = 900 * time.Second

// Generic is the catch-all extractor of spec.md §4.6: it always
// matches, and always runs last in a Registry.
type Generic struct{}

func (Generic) Name() string { return "generic" }

func (Generic) Matches(*url.URL) bool {
	return true
}

func (Generic) Setup(context.Context, *State) error { return nil }

func (Generic) Extract(ctx context.Context, st *State, u *url.URL, params Params) (*embedmodel.EmbedV1, time.Duration, error) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, 0, svcerr.InvalidURL(u.String(), nil)
	}

	cleanHost := st.Config.CleanHost(u.Host)
	site, hasSite := st.Config.SiteFor(cleanHost)
	var siteCfg *SiteConfig
	if hasSite {
		siteCfg = &site
	}

	res, err := fetch(ctx, st.Client, u, siteCfg, params.Lang)
	if err != nil {
		return nil, 0, err
	}
	defer res.Body.Close()

	e := &embedmodel.EmbedV1{URL: u.String()}
	applyRatingHeader(e, res.Header.Get("rating"))

	linkEntries := parseLinkHeader(res.Header.Get("Link"))
	oembedHref, oembedIsJSON, hasOembedFromHeader := oembedFromLinkHeader(linkEntries)

	siteName := ""
	if hasSite {
		siteName = site.Name
	}
	skipOembed := st.Config != nil && st.Config.SkipsOEmbed(siteName, cleanHost)

	ttl := defaultTTL
	contentType := strings.TrimSpace(strings.SplitN(res.Header.Get("Content-Type"), ";", 2)[0])

	switch {
	case strings.EqualFold(contentType, "text/html"):
		limit := int64(1 << 20)
		if st.Config != nil && st.Config.Limits.MaxHTMLSize > 0 {
			limit = st.Config.Limits.MaxHTMLSize
		}
		body, rerr := readCappedUntilBodyClose(res.Body, limit)
		if rerr != nil {
			return nil, 0, svcerr.TransportOther(rerr)
		}
		scan, serr := scanHTML(body, res.Header.Get("Content-Type"))
		if serr != nil {
			return nil, 0, svcerr.TransportOther(serr)
		}
		draft := mapMeta(scan)
		e.Title = draft.Title
		e.Description = draft.Description
		e.Canonical = resolveURL(res.FinalURL, draft.Canonical)
		if draft.ProviderName != "" {
			e.Provider = &embedmodel.Provider{Name: draft.ProviderName}
		}
		if draft.Adult {
			e.Flags = e.Flags.Set(embedmodel.FlagAdult)
		}
		e.Fields = draft.Fields
		if draft.OGImage != "" {
			e.Imgs = append(e.Imgs, embedmodel.BasicMedia{URL: resolveURL(res.FinalURL, draft.OGImage)})
		}

		if !hasOembedFromHeader && draft.OembedHref != "" && !skipOembed {
			oembedHref, oembedIsJSON = draft.OembedHref, draft.OembedIsJSON
			hasOembedFromHeader = true
		}
		if hasOembedFromHeader && !skipOembed {
			if m, oerr := fetchOembed(ctx, st.Client, resolveURL(res.FinalURL, oembedHref)); oerr == nil {
				mergeOembed(e, m, res.FinalURL)
			}
			_ = oembedIsJSON // decode dispatch lives inside artyom/oembed itself
		}

		if draft.ManifestHref != "" && (e.Provider == nil || e.Provider.Name == "" || e.Description == "") {
			if doc, merr := fetchManifest(ctx, st.Client, resolveURL(res.FinalURL, draft.ManifestHref)); merr == nil {
				if e.Provider == nil {
					e.Provider = &embedmodel.Provider{}
				}
				if e.Provider.Name == "" {
					e.Provider.Name = doc.manifestName()
				}
				if e.Description == "" {
					e.Description = doc.Description
				}
				if icon, ok := doc.bestIcon(res.FinalURL); ok && e.Provider.Icon == nil {
					e.Provider.Icon = &embedmodel.BasicMedia{URL: icon}
				}
			}
		}
		if e.Provider == nil || e.Provider.Icon == nil {
			if draft.IconHref != "" {
				if e.Provider == nil {
					e.Provider = &embedmodel.Provider{}
				}
				e.Provider.Icon = &embedmodel.BasicMedia{URL: resolveURL(res.FinalURL, draft.IconHref)}
			} else if icon, ok := probeDefaultFavicon(ctx, st.Client, res.FinalURL); ok {
				if e.Provider == nil {
					e.Provider = &embedmodel.Provider{}
				}
				e.Provider.Icon = &embedmodel.BasicMedia{URL: icon}
			}
		}
		if hasSite && len(site.Fields) > 0 {
			applyFieldSelectors(body, e, site.Fields)
		}
		applyTwitterStatusQuirk(u, e)

	case strings.HasSuffix(contentType, "+xml") || strings.HasSuffix(contentType, "+json") ||
		contentType == "application/xml" || contentType == "text/xml":
		limit := int64(1 << 19)
		if st.Config != nil && st.Config.Limits.MaxXMLSize > 0 {
			limit = st.Config.Limits.MaxXMLSize
		}
		body, rerr := io.ReadAll(io.LimitReader(res.Body, limit))
		if rerr != nil {
			return nil, 0, svcerr.TransportOther(rerr)
		}
		feed, ferr := parseFeed(body, res.Header.Get("Content-Type"))
		if ferr != nil {
			return nil, 0, ferr
		}
		e.Title = feed.Title
		e.Description = feed.Description
		if feed.Logo != "" {
			e.Thumb = &embedmodel.BasicMedia{URL: resolveURL(res.FinalURL, feed.Logo)}
		}
		if feed.Icon != "" && e.Provider == nil {
			e.Provider = &embedmodel.Provider{Icon: &embedmodel.BasicMedia{URL: resolveURL(res.FinalURL, feed.Icon)}}
		}
		applyRatingHeader(e, feed.Rating)
		if feed.TTLMinutes > 0 {
			ttl = time.Duration(feed.TTLMinutes) * time.Minute
		}

	case strings.HasPrefix(contentType, "image/"):
		limit := int64(1 << 22)
		if st.Config != nil && st.Config.Limits.MaxMediaSize > 0 {
			limit = st.Config.Limits.MaxMediaSize
		}
		img := embedmodel.BasicMedia{URL: u.String(), MIME: contentType}
		sniffImage(ctx, st.Client, &img, limit)
		e.Imgs = []embedmodel.BasicMedia{img}

	case strings.HasPrefix(contentType, "video/"):
		e.Video = &embedmodel.BasicMedia{URL: u.String(), MIME: contentType}

	case strings.HasPrefix(contentType, "audio/"):
		e.Audio = &embedmodel.BasicMedia{URL: u.String(), MIME: contentType}
	}

	allowHTML := st.Config != nil && st.Config.AllowsHTML(siteName, cleanHost)
	if !allowHTML {
		e.Obj = nil
		if e.Video != nil && strings.HasPrefix(e.Video.MIME, "text/html") {
			e.Video = nil
		}
	}

	if hasSite && site.Color != "" {
		if c, ok := parseHexColor(site.Color); ok {
			e.Color = &c
		}
	}

	if st.Config != nil && st.Config.ResolveMedia {
		limit := int64(1 << 22)
		if st.Config.Limits.MaxMediaSize > 0 {
			limit = st.Config.Limits.MaxMediaSize
		}
		resolveMedia(ctx, st.Client, e, limit)
	}

	return normalize.Finalize(e, ttl, st.SigningKey)
}

func parseHexColor(s string) (uint32, bool) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return 0, false
	}
	var v uint32
	for _, r := range s {
		v <<= 4
		switch {
		case r >= '0' && r <= '9':
			v |= uint32(r - '0')
		case r >= 'a' && r <= 'f':
			v |= uint32(r-'a') + 10
		case r >= 'A' && r <= 'F':
			v |= uint32(r-'A') + 10
		default:
			return 0, false
		}
	}
	return v, true
}
