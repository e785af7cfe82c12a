package extract

import (
	"net/url"
	"strings"
)

// resolveURL implements spec.md §4.6 step 10 / testable property #8:
// relative, protocol-relative, and the observed "undefined//host/path"
// bug are all resolved against base; absolute http(s) URLs pass
// through unchanged. url.URL.ResolveReference already implements RFC
// 3986 reference resolution, which covers every one of these cases
// once the "undefined" prefix bug is stripped.
func resolveURL(base *url.URL, raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.TrimPrefix(raw, "undefined")
	ref, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}
