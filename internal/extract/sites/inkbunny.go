package sites

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/extract"
)

// Inkbunny handles inkbunny.net submission pages. Inkbunny's API
// requires a session id even for guest access, so this reuses the
// generic HTML/OG pipeline like FurAffinity, only filling in the
// provider name when the generic result leaves it unset.
type Inkbunny struct {
	generic extract.Generic
}

func (Inkbunny) Name() string { return "inkbunny" }

func (Inkbunny) Matches(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	return (host == "inkbunny.net" || host == "www.inkbunny.net") && strings.HasPrefix(u.Path, "/s/")
}

func (i Inkbunny) Setup(ctx context.Context, st *extract.State) error { return i.generic.Setup(ctx, st) }

func (i Inkbunny) Extract(ctx context.Context, st *extract.State, u *url.URL, params extract.Params) (*embedmodel.EmbedV1, time.Duration, error) {
	e, ttl, err := i.generic.Extract(ctx, st, u, params)
	if err != nil {
		return nil, 0, err
	}
	if e.Provider == nil || e.Provider.Name == "" {
		e.Provider = &embedmodel.Provider{Name: "Inkbunny", URL: "https://inkbunny.net"}
	}
	return e, ttl, nil
}
