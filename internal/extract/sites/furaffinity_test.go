package sites

import (
	"net/url"
	"testing"
)

func TestFurAffinityMatches(t *testing.T) {
	f := FurAffinity{}
	u, _ := url.Parse("https://www.furaffinity.net/view/12345678/")
	if !f.Matches(u) {
		t.Fatalf("expected match for /view/ submission path")
	}
	other, _ := url.Parse("https://www.furaffinity.net/user/someone/")
	if f.Matches(other) {
		t.Fatalf("expected no match for non-submission path")
	}
}
