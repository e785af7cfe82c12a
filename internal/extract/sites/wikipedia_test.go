package sites

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/riverlink/embedsvc/internal/extract"
)

func TestWikipediaMatches(t *testing.T) {
	w := Wikipedia{}
	u, _ := url.Parse("https://en.wikipedia.org/wiki/Go_(programming_language)")
	if !w.Matches(u) {
		t.Fatalf("expected match for wikipedia.org /wiki/ path")
	}
	other, _ := url.Parse("https://en.wikipedia.org/w/index.php?title=X")
	if w.Matches(other) {
		t.Fatalf("expected no match outside /wiki/ path")
	}
}

func TestWikipediaExtractMapsSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.Write([]byte(`{
			"title": "Go (programming language)",
			"description": "Programming language",
			"extract": "Go is a statically typed language.",
			"thumbnail": {"source": "https://upload.wikimedia.org/go.png", "width": 240, "height": 240},
			"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Go_(programming_language)"}}
		}`))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL + "/wiki/Go_(programming_language)")
	st := &extract.State{Client: srv.Client(), Config: &extract.Config{}}
	w := Wikipedia{}
	e, ttl, err := w.Extract(context.Background(), st, u, extract.Params{})
	if err != nil {
		t.Fatal(err)
	}
	if e.Title != "Go (programming language)" {
		t.Fatalf("got title %q", e.Title)
	}
	if e.Description != "Programming language" {
		t.Fatalf("got description %q", e.Description)
	}
	if e.Thumb == nil || e.Thumb.URL != "https://upload.wikimedia.org/go.png" {
		t.Fatalf("got thumb %+v", e.Thumb)
	}
	if ttl <= 0 {
		t.Fatalf("expected positive ttl")
	}
}
