package sites

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/extract"
	"github.com/riverlink/embedsvc/internal/normalize"
	"github.com/riverlink/embedsvc/internal/svcerr"
)

// DeviantArt handles deviantart.com deviation permalinks through
// DeviantArt's public, key-less oEmbed endpoint (backend.deviantart.com),
// reusing the same oEmbed fetch/merge plumbing the generic extractor
// uses for discovered endpoints.
type DeviantArt struct{}

func (DeviantArt) Name() string { return "deviantart" }

func (DeviantArt) Matches(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	return strings.HasSuffix(host, "deviantart.com") && u.Path != "/" && u.Path != ""
}

func (DeviantArt) Setup(context.Context, *extract.State) error { return nil }

func (DeviantArt) Extract(ctx context.Context, st *extract.State, u *url.URL, _ extract.Params) (*embedmodel.EmbedV1, time.Duration, error) {
	endpoint := &url.URL{
		Scheme: "https",
		Host:   "backend.deviantart.com",
		Path:   "/oembed",
	}
	q := endpoint.Query()
	q.Set("url", u.String())
	endpoint.RawQuery = q.Encode()

	m, err := extract.FetchOembed(ctx, st.Client, endpoint.String())
	if err != nil {
		return nil, 0, svcerr.TransportOther(err)
	}

	e := &embedmodel.EmbedV1{URL: u.String()}
	e.Provider = &embedmodel.Provider{Name: "DeviantArt", URL: "https://www.deviantart.com"}
	extract.MergeOembed(e, m, u)

	return normalize.Finalize(e, 0, st.SigningKey)
}
