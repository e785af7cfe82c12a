package extract

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// applyTwitterStatusQuirk swaps title/description for Twitter/X status
// permalinks, carried from the teacher's opengraph_parser.go: these
// pages set og:title to the tweet author (redundant with the
// provider/author fields embedsvc already derives) and og:description
// to the tweet body, which reads better as the embed's title.
func applyTwitterStatusQuirk(u *url.URL, e *embedmodel.EmbedV1) {
	host := strings.ToLower(u.Host)
	if !(strings.HasSuffix(host, "twitter.com") || strings.HasSuffix(host, "x.com")) {
		return
	}
	if !strings.Contains(u.Path, "/status/") {
		return
	}
	e.Title, e.Description = e.Description, e.Title
}

// probeDefaultFavicon HEADs /favicon.ico at base's origin, the
// teacher's favicon.go fallback for when no <link rel="icon"> or
// manifest icon was found.
func probeDefaultFavicon(ctx context.Context, client *http.Client, base *url.URL) (string, bool) {
	u := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/favicon.ico"}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, u.String(), nil)
	if err != nil {
		return "", false
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	return u.String(), true
}
