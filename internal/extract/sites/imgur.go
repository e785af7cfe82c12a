package sites

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/extract"
	"github.com/riverlink/embedsvc/internal/normalize"
	"github.com/riverlink/embedsvc/internal/svcerr"
)

var imgurSingleRe = regexp.MustCompile(`^/([A-Za-z0-9]{5,8})(?:\.(jpg|jpeg|png|gif|gifv|webp|mp4))?$`)
var imgurAlbumRe = regexp.MustCompile(`^/(?:a|gallery)/([A-Za-z0-9]{5,8})`)

// Imgur builds direct i.imgur.com CDN links for single-image
// permalinks without calling Imgur's authenticated API, the same
// no-API-key approach unfurl services have long used for Imgur direct
// links. Albums/galleries fall back to a generic provider-only embed
// since enumerating their images needs the API.
type Imgur struct{}

func (Imgur) Name() string { return "imgur" }

func (Imgur) Matches(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	if !(host == "imgur.com" || host == "www.imgur.com" || host == "i.imgur.com") {
		return false
	}
	return imgurSingleRe.MatchString(u.Path) || imgurAlbumRe.MatchString(u.Path)
}

func (Imgur) Setup(context.Context, *extract.State) error { return nil }

func (Imgur) Extract(ctx context.Context, st *extract.State, u *url.URL, _ extract.Params) (*embedmodel.EmbedV1, time.Duration, error) {
	e := &embedmodel.EmbedV1{URL: u.String()}
	e.Provider = &embedmodel.Provider{Name: "Imgur", URL: "https://imgur.com"}

	if m := imgurSingleRe.FindStringSubmatch(u.Path); m != nil {
		id, ext := m[1], m[2]
		if ext == "" {
			ext = "jpg"
		}
		cdn := &url.URL{Scheme: "https", Host: "i.imgur.com", Path: "/" + id + "." + ext}
		media := embedmodel.BasicMedia{URL: cdn.String()}

		limit := int64(1 << 22)
		if st.Config != nil && st.Config.Limits.MaxMediaSize > 0 {
			limit = st.Config.Limits.MaxMediaSize
		}
		switch ext {
		case "gifv", "mp4":
			media.MIME = "video/mp4"
			media.URL = (&url.URL{Scheme: "https", Host: "i.imgur.com", Path: "/" + id + ".mp4"}).String()
			e.Video = &media
		default:
			extract.ProbeImageDimensions(ctx, st.Client, &media, limit)
			if media.MIME == "" {
				media.MIME = "image/" + ext
			}
			e.Imgs = []embedmodel.BasicMedia{media}
		}
		return normalize.Finalize(e, 0, st.SigningKey)
	}

	if m := imgurAlbumRe.FindStringSubmatch(u.Path); m != nil {
		e.Title = "Imgur album"
		return normalize.Finalize(e, 0, st.SigningKey)
	}

	return nil, 0, svcerr.InvalidURL(u.String(), nil)
}
