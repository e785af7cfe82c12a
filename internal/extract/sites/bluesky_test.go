package sites

import (
	"net/url"
	"testing"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

func TestAggregateLabelFlagsMapsKnownValues(t *testing.T) {
	flags := aggregateLabelFlags([]blueskyLabel{
		{Val: "porn"},
		{Val: "spoiler"},
		{Val: "graphic-media"},
	})
	if !flags.Has(embedmodel.FlagAdult) {
		t.Fatalf("expected adult flag")
	}
	if !flags.Has(embedmodel.FlagSpoiler) {
		t.Fatalf("expected spoiler flag")
	}
	if !flags.Has(embedmodel.FlagGraphic) {
		t.Fatalf("expected graphic flag")
	}
}

func TestAggregateLabelFlagsNegCancelsImmediatelyPrecedingLabel(t *testing.T) {
	flags := aggregateLabelFlags([]blueskyLabel{
		{Val: "porn"},
		{Val: "porn", Neg: true},
	})
	if flags.Has(embedmodel.FlagAdult) {
		t.Fatalf("expected neg label to cancel the preceding adult label")
	}
}

func TestAggregateLabelFlagsNegOnlyCancelsMostRecent(t *testing.T) {
	flags := aggregateLabelFlags([]blueskyLabel{
		{Val: "spoiler"},
		{Val: "porn"},
		{Val: "porn", Neg: true},
	})
	if !flags.Has(embedmodel.FlagSpoiler) {
		t.Fatalf("expected earlier spoiler label to survive")
	}
	if flags.Has(embedmodel.FlagAdult) {
		t.Fatalf("expected most recent adult label to be cancelled")
	}
}

func TestAggregateLabelFlagsUnknownValuesIgnored(t *testing.T) {
	flags := aggregateLabelFlags([]blueskyLabel{{Val: "unrelated-tag"}})
	if flags != 0 {
		t.Fatalf("expected no flags for unrecognized label, got %v", flags)
	}
}

func TestBlueskyMatches(t *testing.T) {
	b := Bluesky{}
	u, _ := url.Parse("https://bsky.app/profile/jay.bsky.team/post/abc123")
	if !b.Matches(u) {
		t.Fatalf("expected match for bsky.app profile URL")
	}
	other, _ := url.Parse("https://example.com/profile/x")
	if b.Matches(other) {
		t.Fatalf("expected no match for non-bsky.app host")
	}
}

func TestApplyBlueskyEmbedPopulatesImagesAndVideo(t *testing.T) {
	e := &embedmodel.EmbedV1{}
	emb := &blueskyEmbed{
		Images: []blueskyEmbedImage{{Fullsize: "https://cdn.bsky.app/img1.jpg", Alt: "a photo"}},
	}
	applyBlueskyEmbed(e, emb)
	if len(e.Imgs) != 1 || e.Imgs[0].URL != "https://cdn.bsky.app/img1.jpg" {
		t.Fatalf("got %+v", e.Imgs)
	}

	e2 := &embedmodel.EmbedV1{}
	emb2 := &blueskyEmbed{Video: &blueskyEmbedVideo{Playlist: "https://cdn.bsky.app/v.m3u8", Thumbnail: "https://cdn.bsky.app/thumb.jpg"}}
	applyBlueskyEmbed(e2, emb2)
	if e2.Video == nil || e2.Video.URL != "https://cdn.bsky.app/v.m3u8" {
		t.Fatalf("got %+v", e2.Video)
	}
	if e2.Thumb == nil || e2.Thumb.URL != "https://cdn.bsky.app/thumb.jpg" {
		t.Fatalf("got %+v", e2.Thumb)
	}
}
