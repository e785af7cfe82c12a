package sites

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/extract"
	"github.com/riverlink/embedsvc/internal/normalize"
	"github.com/riverlink/embedsvc/internal/svcerr"
)

const blueskyAppViewBase = "https://public.api.bsky.app"

// Bluesky handles bsky.app profile and post permalinks, calling the
// public AppView's app.bsky.actor.getProfile and app.bsky.feed.getPosts
// endpoints rather than scraping HTML.
type Bluesky struct{}

func (Bluesky) Name() string { return "bluesky" }

func (Bluesky) Matches(u *url.URL) bool {
	return strings.EqualFold(u.Host, "bsky.app") && strings.HasPrefix(u.Path, "/profile/")
}

func (Bluesky) Setup(context.Context, *extract.State) error { return nil }

// blueskyLabel is one entry of an AT Protocol label array; Neg cancels
// the label immediately preceding it in document order.
type blueskyLabel struct {
	Val string `json:"val"`
	Neg bool   `json:"neg"`
}

type blueskyProfile struct {
	Did            string         `json:"did"`
	Handle         string         `json:"handle"`
	DisplayName    string         `json:"displayName"`
	Avatar         string         `json:"avatar"`
	Description    string         `json:"description"`
	FollowersCount int            `json:"followersCount"`
	FollowsCount   int            `json:"followsCount"`
	PostsCount     int            `json:"postsCount"`
	Labels         []blueskyLabel `json:"labels"`
}

type blueskyPostsResponse struct {
	Posts []blueskyPost `json:"posts"`
}

type blueskyPost struct {
	URI          string         `json:"uri"`
	Author       blueskyProfile `json:"author"`
	ReplyCount   int            `json:"replyCount"`
	RepostCount  int            `json:"repostCount"`
	LikeCount    int            `json:"likeCount"`
	Labels       []blueskyLabel `json:"labels"`
	Record       blueskyRecord  `json:"record"`
	Embed        *blueskyEmbed  `json:"embed"`
}

type blueskyRecord struct {
	Text string `json:"text"`
}

type blueskyEmbed struct {
	Type   string             `json:"$type"`
	Images []blueskyEmbedImage `json:"images"`
	Video  *blueskyEmbedVideo  `json:"video"`
	Record *blueskyEmbedRecord `json:"record"`
}

type blueskyEmbedImage struct {
	Fullsize string `json:"fullsize"`
	Thumb    string `json:"thumb"`
	Alt      string `json:"alt"`
	AspectRatio *struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"aspectRatio"`
}

type blueskyEmbedVideo struct {
	Playlist string `json:"playlist"`
	Thumbnail string `json:"thumbnail"`
}

type blueskyEmbedRecord struct {
	Record *struct {
		Value blueskyRecord `json:"value"`
	} `json:"record"`
}

func (Bluesky) Extract(ctx context.Context, st *extract.State, u *url.URL, _ extract.Params) (*embedmodel.EmbedV1, time.Duration, error) {
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	// parts[0] == "profile", parts[1] == handle, optionally parts[2] == "post", parts[3] == rkey
	if len(parts) < 2 || parts[1] == "" {
		return nil, 0, svcerr.InvalidURL(u.String(), nil)
	}
	handle := parts[1]

	profile, err := fetchBlueskyProfile(ctx, st.Client, handle)
	if err != nil {
		return nil, 0, err
	}

	e := &embedmodel.EmbedV1{URL: u.String()}
	e.Provider = &embedmodel.Provider{Name: "Bluesky", URL: "https://bsky.app"}

	if len(parts) >= 4 && parts[2] == "post" && parts[3] != "" {
		uri := fmt.Sprintf("at://%s/app.bsky.feed.post/%s", profile.Did, parts[3])
		post, err := fetchBlueskyPost(ctx, st.Client, uri)
		if err != nil {
			return nil, 0, err
		}
		applyBlueskyPost(e, post)
	} else {
		applyBlueskyProfile(e, profile)
	}

	return normalize.Finalize(e, 0, st.SigningKey)
}

func fetchBlueskyProfile(ctx context.Context, client *http.Client, actor string) (*blueskyProfile, error) {
	endpoint := blueskyAppViewBase + "/xrpc/app.bsky.actor.getProfile?actor=" + url.QueryEscape(actor)
	var p blueskyProfile
	if err := getBlueskyJSON(ctx, client, endpoint, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func fetchBlueskyPost(ctx context.Context, client *http.Client, atURI string) (*blueskyPost, error) {
	endpoint := blueskyAppViewBase + "/xrpc/app.bsky.feed.getPosts?uris=" + url.QueryEscape(atURI)
	var resp blueskyPostsResponse
	if err := getBlueskyJSON(ctx, client, endpoint, &resp); err != nil {
		return nil, err
	}
	if len(resp.Posts) == 0 {
		return nil, svcerr.Failure(http.StatusNotFound)
	}
	return &resp.Posts[0], nil
}

func getBlueskyJSON(ctx context.Context, client *http.Client, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return svcerr.TransportOther(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return svcerr.Failure(resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return svcerr.JSON(err)
	}
	return nil
}

func applyBlueskyProfile(e *embedmodel.EmbedV1, p *blueskyProfile) {
	name := p.DisplayName
	if name == "" {
		name = p.Handle
	}
	e.Title = name
	e.Description = p.Description
	e.Author = &embedmodel.Author{Name: name, URL: "https://bsky.app/profile/" + p.Handle}
	if p.Avatar != "" {
		e.Author.Icon = &embedmodel.BasicMedia{URL: p.Avatar, MIME: "image/jpeg"}
	}
	e.Footer = &embedmodel.Footer{Text: fmt.Sprintf("%d followers · %d posts", p.FollowersCount, p.PostsCount)}
	if flags := aggregateLabelFlags(p.Labels); flags != 0 {
		e.Flags = e.Flags.Set(flags)
	}
}

func applyBlueskyPost(e *embedmodel.EmbedV1, post *blueskyPost) {
	authorName := post.Author.DisplayName
	if authorName == "" {
		authorName = post.Author.Handle
	}
	e.Title = authorName
	e.Description = post.Record.Text
	e.Author = &embedmodel.Author{Name: authorName, URL: "https://bsky.app/profile/" + post.Author.Handle}
	if post.Author.Avatar != "" {
		e.Author.Icon = &embedmodel.BasicMedia{URL: post.Author.Avatar, MIME: "image/jpeg"}
	}
	e.Footer = &embedmodel.Footer{
		Text: fmt.Sprintf("%d likes · %d reposts · %d replies", post.LikeCount, post.RepostCount, post.ReplyCount),
	}

	allLabels := append(append([]blueskyLabel{}, post.Labels...), post.Author.Labels...)
	if flags := aggregateLabelFlags(allLabels); flags != 0 {
		e.Flags = e.Flags.Set(flags)
	}

	if post.Embed != nil {
		applyBlueskyEmbed(e, post.Embed)
	}
}

func applyBlueskyEmbed(e *embedmodel.EmbedV1, emb *blueskyEmbed) {
	for _, img := range emb.Images {
		m := embedmodel.BasicMedia{URL: img.Fullsize, Description: img.Alt, MIME: "image/jpeg"}
		if img.AspectRatio != nil {
			w, h := img.AspectRatio.Width, img.AspectRatio.Height
			m.Width, m.Height = &w, &h
		}
		e.Imgs = append(e.Imgs, m)
	}
	if emb.Video != nil && emb.Video.Playlist != "" {
		e.Video = &embedmodel.BasicMedia{URL: emb.Video.Playlist, MIME: "application/vnd.apple.mpegurl"}
		if emb.Video.Thumbnail != "" {
			e.Thumb = &embedmodel.BasicMedia{URL: emb.Video.Thumbnail, MIME: "image/jpeg"}
		}
	}
	if emb.Record != nil && emb.Record.Record != nil && e.Description == "" {
		e.Description = emb.Record.Record.Value.Text
	}
}

// aggregateLabelFlags implements spec.md §4.7's Bluesky label
// aggregation: labels are folded in document order onto a stack of
// active values; a label with Neg=true cancels whichever label was
// most recently pushed (the "immediately-preceding" label), regardless
// of whether its own Val matches. The surviving active values are then
// mapped onto content-warning flags.
func aggregateLabelFlags(labels []blueskyLabel) embedmodel.Flags {
	var active []string
	for _, l := range labels {
		if l.Neg {
			if len(active) > 0 {
				active = active[:len(active)-1]
			}
			continue
		}
		active = append(active, l.Val)
	}

	var flags embedmodel.Flags
	for _, val := range active {
		switch strings.ToLower(val) {
		case "adult", "sexual", "nudity", "porn", "explicit":
			flags = flags.Set(embedmodel.FlagAdult)
		case "spoiler":
			flags = flags.Set(embedmodel.FlagSpoiler)
		case "graphic-media":
			flags = flags.Set(embedmodel.FlagGraphic).Set(embedmodel.FlagSpoiler)
		}
	}
	return flags
}
