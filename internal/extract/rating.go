package extract

import (
	"regexp"
	"strings"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// hasAdultRating reports whether header contains, case-insensitively,
// one of the markers spec.md §4.6 step 5 names.
func hasAdultRating(header string) bool {
	if header == "" {
		return false
	}
	h := strings.ToLower(header)
	for _, marker := range []string{"adult", "mature", "rta-5042-1996-1400-1577-rta"} {
		if strings.Contains(h, marker) {
			return true
		}
	}
	return false
}

func applyRatingHeader(e *embedmodel.EmbedV1, ratingHeader string) {
	if hasAdultRating(ratingHeader) {
		e.Flags = e.Flags.Set(embedmodel.FlagAdult)
	}
}

// linkHeaderEntry is one comma-separated entry of an RFC-5988 Link
// header: `<url>; rel="alternate"; type="application/json+oembed"`.
type linkHeaderEntry struct {
	URL   string
	Rel   string
	Type  string
	Title string
}

var linkHeaderURLRe = regexp.MustCompile(`^\s*<([^>]*)>\s*(.*)$`)
var linkHeaderParamRe = regexp.MustCompile(`([a-zA-Z0-9_-]+)\s*=\s*"?([^";,]*)"?`)

// parseLinkHeader splits a Link header value into its comma-separated
// entries. It does not attempt to handle commas embedded inside quoted
// parameter values (RFC 5988 entries in practice never need that for
// the oEmbed discovery use spec.md §4.6 step 6 needs).
func parseLinkHeader(header string) []linkHeaderEntry {
	if header == "" {
		return nil
	}
	var out []linkHeaderEntry
	for _, part := range strings.Split(header, ",") {
		m := linkHeaderURLRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		entry := linkHeaderEntry{URL: m[1]}
		for _, pm := range linkHeaderParamRe.FindAllStringSubmatch(m[2], -1) {
			switch strings.ToLower(pm[1]) {
			case "rel":
				entry.Rel = pm[2]
			case "type":
				entry.Type = pm[2]
			case "title":
				entry.Title = pm[2]
			}
		}
		out = append(out, entry)
	}
	return out
}

// oembedFromLinkHeader returns the oEmbed discovery endpoint from the
// Link header entries, preferring a JSON endpoint over an XML one when
// both are present, per spec.md §4.6 step 6.
func oembedFromLinkHeader(entries []linkHeaderEntry) (endpoint string, isJSON bool, found bool) {
	var xmlEndpoint string
	for _, e := range entries {
		if !strings.EqualFold(e.Rel, "alternate") {
			continue
		}
		switch strings.ToLower(e.Type) {
		case "application/json+oembed":
			return e.URL, true, true
		case "text/xml+oembed":
			xmlEndpoint = e.URL
		}
	}
	if xmlEndpoint != "" {
		return xmlEndpoint, false, true
	}
	return "", false, false
}
