package extract

import (
	"bytes"
	"io"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"
)

// metaRecord is one <meta> or <title> observation from the scanner.
type metaRecord struct {
	Kind     string // "name", "property", "itemprop", "title", "description"
	Property string
	Content  string
	Scope    string // ambient itemtype, set for itemprop-kind records
}

// linkRecord is one <link> observation.
type linkRecord struct {
	Rel         string
	Href        string
	Type        string
	Title       string
	Sizes       string
	CrossOrigin string
}

// scanResult is everything the meta-tag parser of spec.md §4.6
// extracts from an HTML document's head.
type scanResult struct {
	Metas []metaRecord
	Links []linkRecord
}

// scanHTML streams htmlBody (already capped to max_html_size and
// truncated at the first "</body" per the caller) looking for <meta>,
// <title>, <link>, and itemscope-bearing elements. It exits as soon as
// a <body> start tag is observed, mirroring the teacher's
// findTitle/extractFaviconLink early-exit (head-only metadata).
//
// Scope tracking is intentionally shallow: an itemscope element
// becomes the ambient scope for itemprop meta observations until the
// next itemscope element is seen. This matches spec.md §4.6's own
// description ("ambient scope... until the next scope") rather than
// building a full DOM tree.
func scanHTML(htmlBody []byte, contentType string) (*scanResult, error) {
	r, err := charset.NewReader(bytes.NewReader(htmlBody), contentType)
	if err != nil {
		r = bytes.NewReader(htmlBody)
	}
	z := html.NewTokenizer(r)
	res := &scanResult{}
	var scope string

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return res, nil
			}
			return res, z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			attrs := map[string]string{}
			for hasAttr {
				var k, v []byte
				k, v, hasAttr = z.TagAttr()
				attrs[string(k)] = string(v)
			}
			switch atom.Lookup(name) {
			case atom.Body:
				return res, nil
			case atom.Title:
				if tt2 := z.Next(); tt2 == html.TextToken {
					res.Metas = append(res.Metas, metaRecord{Kind: "title", Content: string(z.Text())})
				}
			case atom.Meta:
				if _, ok := attrs["itemscope"]; ok {
					scope = attrs["itemtype"]
				}
				switch {
				case attrs["property"] != "":
					res.Metas = append(res.Metas, metaRecord{Kind: "property", Property: attrs["property"], Content: attrs["content"]})
				case attrs["itemprop"] != "":
					res.Metas = append(res.Metas, metaRecord{Kind: "itemprop", Property: attrs["itemprop"], Content: attrs["content"], Scope: scope})
				case attrs["name"] != "":
					res.Metas = append(res.Metas, metaRecord{Kind: "name", Property: attrs["name"], Content: attrs["content"]})
				}
			case atom.Link:
				res.Links = append(res.Links, linkRecord{
					Rel:         attrs["rel"],
					Href:        attrs["href"],
					Type:        attrs["type"],
					Title:       attrs["title"],
					Sizes:       attrs["sizes"],
					CrossOrigin: attrs["crossorigin"],
				})
			default:
				if _, ok := attrs["itemscope"]; ok {
					scope = attrs["itemtype"]
				}
			}
		}
	}
}

// readCappedUntilBodyClose reads from r up to limit bytes, stopping
// early once the literal "</body" marker appears in the accumulated
// buffer, per spec.md §4.6 step 7's streaming rule for text/html.
func readCappedUntilBodyClose(r io.Reader, limit int64) ([]byte, error) {
	const marker = "</body"
	buf := make([]byte, 0, 8192)
	chunk := make([]byte, 4096)
	for int64(len(buf)) < limit {
		n, err := r.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if bytes.Contains(buf, []byte(marker)) {
				return buf, nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return buf, nil
			}
			return buf, err
		}
	}
	return buf, nil
}
