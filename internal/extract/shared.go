package extract

import (
	"context"
	"net/http"
	"net/url"

	oe "github.com/artyom/oembed"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// Shared plumbing the C7 site extractors reuse from the generic
// extractor (spec.md §4.7: "they may reuse the generic HTTP fetch,
// HTML parsing, and finalization"), exported for internal/extract/sites.

// ResolveURL resolves raw against base, handling the relative,
// protocol-relative, and "undefined"-prefixed forms spec.md §4.6
// step 10 covers.
func ResolveURL(base *url.URL, raw string) string { return resolveURL(base, raw) }

// ProbeContentType HEADs rawURL and returns its Content-Type, stripped
// of any parameters.
func ProbeContentType(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	return headContentType(ctx, client, rawURL)
}

// ProbeImageDimensions partially GETs m.URL and fills in its MIME and
// pixel dimensions by decoding just enough of the stream, the same
// sniff the generic extractor's image branch uses.
func ProbeImageDimensions(ctx context.Context, client *http.Client, m *embedmodel.BasicMedia, maxSize int64) {
	sniffImage(ctx, client, m, maxSize)
}

// FetchOembed retrieves and decodes the oEmbed payload at endpoint.
func FetchOembed(ctx context.Context, client *http.Client, endpoint string) (*oe.Metadata, error) {
	return fetchOembed(ctx, client, endpoint)
}

// MergeOembed overlays an oEmbed payload onto e, the same merge the
// generic extractor applies after discovery.
func MergeOembed(e *embedmodel.EmbedV1, m *oe.Metadata, base *url.URL) {
	mergeOembed(e, m, base)
}
