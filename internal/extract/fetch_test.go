package extract

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/riverlink/embedsvc/internal/svcerr"
)

func TestFetchSuccessSetsFinalURLAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	res, err := fetch(context.Background(), srv.Client(), u, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("got status %d", res.StatusCode)
	}
	if res.Header.Get("Content-Type") != "text/html" {
		t.Fatalf("got content-type %q", res.Header.Get("Content-Type"))
	}
}

func TestFetchNon2xxReturnsFailureError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	_, err := fetch(context.Background(), srv.Client(), u, nil, "")
	if err == nil {
		t.Fatalf("expected error for 404 response")
	}
	var svcErr *svcerr.Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *svcerr.Error, got %T: %v", err, err)
	}
}

func TestFetchSendsSiteUserAgentAndCookie(t *testing.T) {
	var gotUA, gotCookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotCookie = r.Header.Get("Cookie")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	site := &SiteConfig{Name: "test", UserAgent: "test-agent/1.0", Cookie: "session=abc"}
	_, err := fetch(context.Background(), srv.Client(), u, site, "")
	if err != nil {
		t.Fatal(err)
	}
	if gotUA != "test-agent/1.0" {
		t.Fatalf("got UA %q", gotUA)
	}
	if gotCookie != "session=abc" {
		t.Fatalf("got cookie %q", gotCookie)
	}
}

func TestIsConnectTimeoutDetectsDialOp(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	if !isConnectTimeout(dialErr) {
		t.Fatalf("expected dial op error to be treated as connect timeout")
	}
	readErr := &net.OpError{Op: "read", Err: errors.New("broken pipe")}
	if isConnectTimeout(readErr) {
		t.Fatalf("expected read op error not to be treated as connect timeout")
	}
}

func TestClassifyTransportErr(t *testing.T) {
	dialErr := &net.OpError{Op: "dial", Err: errors.New("connection refused")}
	got := classifyTransportErr(dialErr)
	var svcErr *svcerr.Error
	if !errors.As(got, &svcErr) {
		t.Fatalf("expected *svcerr.Error, got %T", got)
	}
}

func TestIsTwitterOrX(t *testing.T) {
	cases := map[string]bool{
		"twitter.com":     true,
		"www.twitter.com": true,
		"x.com":           true,
		"mobile.x.com":    true,
		"example.com":     false,
	}
	for host, want := range cases {
		if got := isTwitterOrX(host); got != want {
			t.Fatalf("isTwitterOrX(%q) = %v, want %v", host, got, want)
		}
	}
}
