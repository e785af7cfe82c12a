package extract

import (
	"net/url"
	"testing"
)

func TestManifestNamePrefersNameOverShortName(t *testing.T) {
	d := &manifestDoc{Name: "Full Name", ShortName: "Short"}
	if got := d.manifestName(); got != "Full Name" {
		t.Fatalf("got %q", got)
	}
	d2 := &manifestDoc{ShortName: "Short"}
	if got := d2.manifestName(); got != "Short" {
		t.Fatalf("got %q", got)
	}
}

func TestManifestBestIconPicksSmallestUnder512(t *testing.T) {
	base, _ := url.Parse("https://ex.com/")
	d := &manifestDoc{Icons: []manifestIcon{
		{Src: "/icon-1024.png", Sizes: "1024x1024"},
		{Src: "/icon-192.png", Sizes: "192x192"},
		{Src: "/icon-512.png", Sizes: "512x512"},
		{Src: "/icon-any.png", Sizes: "any"},
	}}
	got, ok := d.bestIcon(base)
	if !ok {
		t.Fatalf("expected an icon to be selected")
	}
	if got != "https://ex.com/icon-192.png" {
		t.Fatalf("got %q", got)
	}
}

func TestManifestBestIconNoneEligible(t *testing.T) {
	base, _ := url.Parse("https://ex.com/")
	d := &manifestDoc{Icons: []manifestIcon{{Src: "/icon-1024.png", Sizes: "1024x1024"}}}
	_, ok := d.bestIcon(base)
	if ok {
		t.Fatalf("expected no icon eligible")
	}
}

func TestParseIconSizes(t *testing.T) {
	w, h, ok := parseIconSizes("48x48 96x96")
	if !ok || w != 48 || h != 48 {
		t.Fatalf("got w=%d h=%d ok=%v", w, h, ok)
	}
	if _, _, ok := parseIconSizes("any"); ok {
		t.Fatalf("expected any to be rejected")
	}
	if _, _, ok := parseIconSizes(""); ok {
		t.Fatalf("expected empty to be rejected")
	}
}
