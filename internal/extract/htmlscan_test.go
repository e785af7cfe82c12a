package extract

import (
	"io"
	"testing"
)

func TestScanHTMLCollectsMetaAndLinks(t *testing.T) {
	doc := []byte(`<html><head>
<title>Fallback Title</title>
<meta property="og:title" content="OG Title">
<meta name="description" content="fallback desc">
<link rel="canonical" href="https://ex.com/canon">
<link rel="icon" href="/favicon.ico">
<link rel="alternate" type="application/json+oembed" href="/oembed.json">
</head><body>ignored</body></html>`)

	res, err := scanHTML(doc, "text/html; charset=utf-8")
	if err != nil {
		t.Fatal(err)
	}

	var sawTitle, sawOG, sawDesc bool
	for _, m := range res.Metas {
		switch {
		case m.Kind == "title" && m.Content == "Fallback Title":
			sawTitle = true
		case m.Kind == "property" && m.Property == "og:title" && m.Content == "OG Title":
			sawOG = true
		case m.Kind == "name" && m.Property == "description" && m.Content == "fallback desc":
			sawDesc = true
		}
	}
	if !sawTitle || !sawOG || !sawDesc {
		t.Fatalf("missing expected meta records: %+v", res.Metas)
	}
	if len(res.Links) != 3 {
		t.Fatalf("expected 3 links, got %d: %+v", len(res.Links), res.Links)
	}
}

func TestScanHTMLStopsAtBody(t *testing.T) {
	doc := []byte(`<html><head><title>T</title></head><body><meta name="description" content="should not be seen"></body></html>`)
	res, err := scanHTML(doc, "text/html")
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range res.Metas {
		if m.Property == "description" {
			t.Fatalf("scanner should not have descended into body, got %+v", m)
		}
	}
}

func TestReadCappedUntilBodyCloseStopsAtMarker(t *testing.T) {
	// reader that yields the content byte by byte.
	src := []byte("<html><head></head><body>hi</body><!--trailing content should be cut--></html>")
	out, err := readCappedUntilBodyClose(&byteAtATimeReader{data: src}, int64(len(src)))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) >= len(src) {
		t.Fatalf("expected early stop at </body marker, got full %d bytes", len(out))
	}
}

type byteAtATimeReader struct {
	data []byte
	pos  int
}

func (r *byteAtATimeReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:r.pos+1])
	r.pos += n
	return n, nil
}
