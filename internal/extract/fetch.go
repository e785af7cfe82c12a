package extract

import (
	"compress/zlib"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/riverlink/embedsvc/internal/svcerr"
)

// fetchResult is the outcome of the HTTP GET step of spec.md §4.6
// steps 3-6: the response body (deflate-unwrapped where needed), the
// final URL after redirects, and the headers needed for rating/Link
// discovery.
type fetchResult struct {
	FinalURL   *url.URL
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// fetch performs the GET with up to one retry, honoring site request
// customization and the language hint, per spec.md §4.6 steps 2-4.
func fetch(ctx context.Context, client *http.Client, u *url.URL, site *SiteConfig, lang string) (*fetchResult, error) {
	resp, err := doFetchOnce(ctx, client, u, site, lang)
	if err != nil && isConnectTimeout(err) {
		resp, err = doFetchOnce(ctx, client, u, site, lang)
	}
	if err != nil {
		return nil, classifyTransportErr(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, svcerr.Failure(resp.StatusCode)
	}
	body := resp.Body
	if resp.Header.Get("Content-Encoding") == "deflate" && isTwitterOrX(resp.Request.Host) {
		// Twitter/X sends unsolicited deflate-encoded responses that
		// violate RFC 7231; the Go client can't negotiate around it
		// since it never asked for deflate. See golang.org/issue/18779.
		zr, zerr := zlib.NewReader(body)
		if zerr != nil {
			body.Close()
			return nil, svcerr.TransportOther(zerr)
		}
		body = struct {
			io.Reader
			io.Closer
		}{zr, body}
	}
	return &fetchResult{
		FinalURL:   resp.Request.URL,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func isTwitterOrX(host string) bool {
	return strings.HasSuffix(host, "twitter.com") || strings.HasSuffix(host, "x.com")
}

func doFetchOnce(ctx context.Context, client *http.Client, u *url.URL, site *SiteConfig, lang string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept-Encoding", "gzip, br")
	if lang != "" {
		req.Header.Set("Accept-Language", lang+";q=0.5")
	}
	if site != nil {
		if site.UserAgent != "" {
			req.Header.Set("User-Agent", site.UserAgent)
		}
		if site.Cookie != "" {
			req.Header.Set("Cookie", site.Cookie)
		}
	}
	return client.Do(req)
}

// isConnectTimeout reports whether err is a dial-phase failure, the
// only class spec.md §4.6 step 3 retries on (a slow/failed read is
// not retried).
func isConnectTimeout(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial"
	}
	return false
}

func classifyTransportErr(err error) error {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return svcerr.TransportConnect(err)
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return svcerr.TransportTimeout(err)
	}
	return svcerr.TransportOther(err)
}
