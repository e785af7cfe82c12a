package sites

import (
	"net/url"
	"testing"
)

func TestInkbunnyMatches(t *testing.T) {
	i := Inkbunny{}
	u, _ := url.Parse("https://inkbunny.net/s/123456")
	if !i.Matches(u) {
		t.Fatalf("expected match for /s/ submission path")
	}
	other, _ := url.Parse("https://inkbunny.net/gallery/123")
	if i.Matches(other) {
		t.Fatalf("expected no match for non-submission path")
	}
}
