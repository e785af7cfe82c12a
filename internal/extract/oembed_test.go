package extract

import (
	"net/url"
	"testing"

	oe "github.com/artyom/oembed"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

func TestExtractEmbedSrcFindsIframe(t *testing.T) {
	snippet := `<iframe src="https://ex.com/embed/1" type="text/html" width="640" height="360" frameborder="0"></iframe>`
	src, typ, ok := extractEmbedSrc(snippet)
	if !ok {
		t.Fatalf("expected iframe found")
	}
	if src != "https://ex.com/embed/1" || typ != "text/html" {
		t.Fatalf("got src=%q typ=%q", src, typ)
	}
}

func TestExtractEmbedSrcNoMatch(t *testing.T) {
	_, _, ok := extractEmbedSrc(`<div>no embeddable element here</div>`)
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestMergeOembedPhotoAppendsImage(t *testing.T) {
	base, _ := url.Parse("https://ex.com/")
	e := &embedmodel.EmbedV1{URL: "https://ex.com/a"}
	m := &oe.Metadata{Type: oe.TypePhoto, Title: "A Photo", URL: "/p.jpg", Width: 800, Height: 600}
	mergeOembed(e, m, base)

	if e.Title != "A Photo" {
		t.Fatalf("expected title merged, got %q", e.Title)
	}
	if len(e.Imgs) != 1 || e.Imgs[0].URL != "https://ex.com/p.jpg" {
		t.Fatalf("got imgs %+v", e.Imgs)
	}
	if e.Imgs[0].Width == nil || *e.Imgs[0].Width != 800 {
		t.Fatalf("got width %+v", e.Imgs[0].Width)
	}
}

func TestMergeOembedVideoExtractsIframeSrc(t *testing.T) {
	base, _ := url.Parse("https://ex.com/")
	e := &embedmodel.EmbedV1{URL: "https://ex.com/a"}
	m := &oe.Metadata{Type: oe.TypeVideo, HTML: `<iframe src="/embed/vid" type="video/mp4"></iframe>`}
	mergeOembed(e, m, base)

	if e.Video == nil {
		t.Fatalf("expected video slot populated")
	}
	if e.Video.URL != "https://ex.com/embed/vid" {
		t.Fatalf("got %q", e.Video.URL)
	}
}

func TestMergeOembedRichWithoutVideoMIMEGoesToObj(t *testing.T) {
	base, _ := url.Parse("https://ex.com/")
	e := &embedmodel.EmbedV1{URL: "https://ex.com/a"}
	m := &oe.Metadata{Type: oe.TypeRich, HTML: `<iframe src="/embed/rich" type="text/html"></iframe>`}
	mergeOembed(e, m, base)

	if e.Obj == nil {
		t.Fatalf("expected obj slot populated")
	}
	if e.Video != nil {
		t.Fatalf("did not expect video slot populated")
	}
}

func TestMergeOembedDoesNotOverwriteExistingTitle(t *testing.T) {
	base, _ := url.Parse("https://ex.com/")
	e := &embedmodel.EmbedV1{URL: "https://ex.com/a", Title: "Existing"}
	m := &oe.Metadata{Type: oe.TypeLink, Title: "From oEmbed"}
	mergeOembed(e, m, base)
	if e.Title != "Existing" {
		t.Fatalf("expected existing title preserved, got %q", e.Title)
	}
}
