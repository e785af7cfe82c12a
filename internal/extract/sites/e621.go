package sites

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/extract"
	"github.com/riverlink/embedsvc/internal/normalize"
	"github.com/riverlink/embedsvc/internal/svcerr"
)

const e621MaxOriginalDim = 2048

var e621PostPathRe = regexp.MustCompile(`^/posts/(\d+)`)

// E621 handles e621.net and e926.net post permalinks via the posts API.
// e926 is e621's SFW mirror: it rejects explicit posts outright rather
// than merely flagging them.
type E621 struct{}

func (E621) Name() string { return "e621" }

func (E621) Matches(u *url.URL) bool {
	host := strings.ToLower(u.Host)
	if !(strings.HasSuffix(host, "e621.net") || strings.HasSuffix(host, "e926.net")) {
		return false
	}
	return e621PostPathRe.MatchString(u.Path)
}

func (E621) Setup(context.Context, *extract.State) error { return nil }

type e621File struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Ext    string `json:"ext"`
	Size   int    `json:"size"`
}

type e621Sample struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type e621Post struct {
	ID     int    `json:"id"`
	Rating string `json:"rating"` // "s", "q", "e"
	Tags   struct {
		General  []string `json:"general"`
		Artist   []string `json:"artist"`
		Species  []string `json:"species"`
	} `json:"tags"`
	File        e621File   `json:"file"`
	Sample      e621Sample `json:"sample"`
	Description string     `json:"description"`
}

type e621PostResponse struct {
	Post e621Post `json:"post"`
}

func (E621) Extract(ctx context.Context, st *extract.State, u *url.URL, _ extract.Params) (*embedmodel.EmbedV1, time.Duration, error) {
	m := e621PostPathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return nil, 0, svcerr.InvalidURL(u.String(), nil)
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, 0, svcerr.InvalidURL(u.String(), err)
	}

	isE926 := strings.HasSuffix(strings.ToLower(u.Host), "e926.net")

	post, err := fetchE621Post(ctx, st.Client, u.Scheme, u.Host, id)
	if err != nil {
		return nil, 0, err
	}

	if isE926 && post.Rating == "e" {
		return nil, 0, svcerr.Failure(http.StatusForbidden)
	}

	e := &embedmodel.EmbedV1{URL: u.String()}
	e.Provider = &embedmodel.Provider{Name: "e621", URL: "https://e621.net"}
	if isE926 {
		e.Provider.Name = "e926"
		e.Provider.URL = "https://e926.net"
	}
	e.Description = post.Description
	if len(post.Tags.Artist) > 0 {
		e.Author = &embedmodel.Author{Name: strings.Join(post.Tags.Artist, ", ")}
	}
	if post.Rating == "e" {
		e.Flags = e.Flags.Set(embedmodel.FlagAdult)
	}

	media := pickE621Media(post)
	assignE621Media(e, post, media)

	return normalize.Finalize(e, 0, st.SigningKey)
}

func fetchE621Post(ctx context.Context, client *http.Client, scheme, host string, id int) (*e621Post, error) {
	endpoint := (&url.URL{Scheme: scheme, Host: host, Path: "/posts/" + strconv.Itoa(id) + ".json"}).String()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "embedsvc/1.0 (by unfurl bot)")
	resp, err := client.Do(req)
	if err != nil {
		return nil, svcerr.TransportOther(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, svcerr.Failure(resp.StatusCode)
	}
	var pr e621PostResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, svcerr.JSON(err)
	}
	return &pr.Post, nil
}

// pickE621Media implements spec.md §4.7's e621 media-size rule: prefer
// the full-size file unless its larger dimension exceeds
// e621MaxOriginalDim, in which case the pre-scaled sample is used.
func pickE621Media(post *e621Post) e621File {
	if (post.File.Width > e621MaxOriginalDim || post.File.Height > e621MaxOriginalDim) && post.Sample.URL != "" {
		return e621File{URL: post.Sample.URL, Width: post.Sample.Width, Height: post.Sample.Height, Ext: post.File.Ext}
	}
	return post.File
}

// assignE621Media places the chosen media into the embed's video or
// image slot, and for non-mp4 video adds the original file as an
// alternate transcode alongside the sample, per spec.md §4.7.
func assignE621Media(e *embedmodel.EmbedV1, post *e621Post, chosen e621File) {
	switch strings.ToLower(chosen.Ext) {
	case "webm", "mp4":
		mime := "video/webm"
		if strings.ToLower(chosen.Ext) == "mp4" {
			mime = "video/mp4"
		}
		w, h := chosen.Width, chosen.Height
		video := &embedmodel.BasicMedia{URL: chosen.URL, MIME: mime, Width: &w, Height: &h}
		if mime != "video/mp4" && post.File.URL != "" && post.File.URL != chosen.URL {
			video.Alternates = append(video.Alternates, embedmodel.BasicMedia{
				URL:  post.File.URL,
				MIME: "video/" + strings.ToLower(post.File.Ext),
			})
		}
		e.Video = video
	case "gif":
		w, h := chosen.Width, chosen.Height
		e.Imgs = []embedmodel.BasicMedia{{URL: chosen.URL, MIME: "image/gif", Width: &w, Height: &h}}
	default:
		w, h := chosen.Width, chosen.Height
		e.Imgs = []embedmodel.BasicMedia{{URL: chosen.URL, MIME: "image/" + strings.ToLower(chosen.Ext), Width: &w, Height: &h}}
	}
}
