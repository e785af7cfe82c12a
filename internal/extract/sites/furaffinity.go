package sites

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/extract"
)

// FurAffinity handles furaffinity.net submission pages. FurAffinity has
// no public metadata API, so this is a thin specialization over the
// generic HTML/OG pipeline (spec.md §4.7: "they may reuse the generic
// HTTP fetch, HTML parsing, and finalization") that only fills in the
// provider name when the page's own tags leave it unset.
type FurAffinity struct {
	generic extract.Generic
}

func (FurAffinity) Name() string { return "furaffinity" }

func (FurAffinity) Matches(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	return (host == "furaffinity.net" || host == "www.furaffinity.net") && strings.HasPrefix(u.Path, "/view/")
}

func (f FurAffinity) Setup(ctx context.Context, st *extract.State) error { return f.generic.Setup(ctx, st) }

func (f FurAffinity) Extract(ctx context.Context, st *extract.State, u *url.URL, params extract.Params) (*embedmodel.EmbedV1, time.Duration, error) {
	e, ttl, err := f.generic.Extract(ctx, st, u, params)
	if err != nil {
		return nil, 0, err
	}
	if e.Provider == nil || e.Provider.Name == "" {
		e.Provider = &embedmodel.Provider{Name: "FurAffinity", URL: "https://www.furaffinity.net"}
	}
	return e, ttl, nil
}
