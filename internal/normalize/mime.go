package normalize

import (
	"mime"
	"path"
	"strings"
)

// inferMIME infers a MIME type from rawURL's extension using the
// stdlib mime registry, per spec.md §4.8 step 7. No corpus example
// repo carries a MIME-sniffing-by-extension library (net/http's own
// DetectContentType sniffs from content, not extension), so this is a
// deliberate, justified stdlib use.
func inferMIME(rawURL string) string {
	clean := rawURL
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	ext := path.Ext(clean)
	if ext == "" {
		return ""
	}
	t := mime.TypeByExtension(ext)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}
