package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

func TestApplyTwitterStatusQuirkSwapsTitleAndDescription(t *testing.T) {
	u, _ := url.Parse("https://twitter.com/jack/status/123456")
	e := &embedmodel.EmbedV1{Title: "Jack Dorsey", Description: "just setting up my twttr"}
	applyTwitterStatusQuirk(u, e)
	if e.Title != "just setting up my twttr" || e.Description != "Jack Dorsey" {
		t.Fatalf("got title=%q description=%q", e.Title, e.Description)
	}
}

func TestApplyTwitterStatusQuirkIgnoresNonStatusPages(t *testing.T) {
	u, _ := url.Parse("https://twitter.com/jack")
	e := &embedmodel.EmbedV1{Title: "Profile Title", Description: "Profile Description"}
	applyTwitterStatusQuirk(u, e)
	if e.Title != "Profile Title" || e.Description != "Profile Description" {
		t.Fatalf("unexpected mutation: %+v", e)
	}
}

func TestApplyTwitterStatusQuirkIgnoresOtherHosts(t *testing.T) {
	u, _ := url.Parse("https://example.com/status/123")
	e := &embedmodel.EmbedV1{Title: "T", Description: "D"}
	applyTwitterStatusQuirk(u, e)
	if e.Title != "T" || e.Description != "D" {
		t.Fatalf("unexpected mutation: %+v", e)
	}
}

func TestProbeDefaultFaviconFoundAndNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/favicon.ico" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	base, _ := url.Parse(srv.URL)
	icon, ok := probeDefaultFavicon(context.Background(), srv.Client(), base)
	if !ok {
		t.Fatalf("expected favicon found")
	}
	if icon != srv.URL+"/favicon.ico" {
		t.Fatalf("got %q", icon)
	}

	missingSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer missingSrv.Close()
	mbase, _ := url.Parse(missingSrv.URL)
	_, ok = probeDefaultFavicon(context.Background(), missingSrv.Client(), mbase)
	if ok {
		t.Fatalf("expected favicon not found")
	}
}
