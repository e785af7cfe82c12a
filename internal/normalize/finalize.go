// Package normalize implements the post-extraction normalization and
// quirks pipeline of spec.md §4.8: every candidate embed an extractor
// produces passes through Finalize before it is handed to the
// singleflight coordinator to publish and cache.
package normalize

import (
	"strings"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

const (
	minTTL = 900 * time.Second
	maxTTL = 30 * 24 * time.Hour
	defaultTTL = 900 * time.Second

	thumbDemoteMaxDim = 320
)

// Limits per spec.md §3: "title ≤1024, description ≤2048, provider
// name ≤196, author name ≤196, media description ≤512". Field
// name/value and footer text aren't named there; they keep
// conservative limits of their own.
var textFieldLimits = map[embedmodel.TextField]int{
	embedmodel.TextTitle:            1024,
	embedmodel.TextDescription:      2048,
	embedmodel.TextAuthorName:       196,
	embedmodel.TextProviderName:     196,
	embedmodel.TextMediaDescription: 512,
	embedmodel.TextFieldName:        64,
	embedmodel.TextFieldValue:       256,
	embedmodel.TextFooterText:       256,
}

// Finalize runs the spec.md §4.8 normalization pipeline on e and
// returns the finalized embed plus its clamped TTL. signingKey may be
// nil/empty, in which case step 9 (media URL signing) is skipped.
func Finalize(e *embedmodel.EmbedV1, ttl time.Duration, signingKey []byte) (*embedmodel.EmbedV1, time.Duration, error) {
	discardWrongMIME(e)
	elideRedundant(e)
	removeEmptyFields(e)
	demoteUndersizedSingleImage(e)
	clearMediaDescriptionDupes(e)

	embedmodel.VisitFullMedia(e, func(m *embedmodel.BasicMedia) {
		embedmodel.NormalizeMedia(m)
	})

	embedmodel.VisitText(e, func(kind embedmodel.TextField, s *string) {
		if limit, ok := textFieldLimits[kind]; ok {
			*s = trimText(*s, limit)
		}
	})
	embedmodel.VisitFullMedia(e, func(m *embedmodel.BasicMedia) {
		if m.MIME == "" {
			m.MIME = inferMIME(m.URL)
		}
	})

	e.Type = embedmodel.DeriveType(e)

	if len(signingKey) > 0 {
		embedmodel.VisitFullMedia(e, func(m *embedmodel.BasicMedia) {
			if m.URL != "" {
				m.Signature = SignMediaURL(signingKey, m.URL)
			}
		})
	}

	e.Timestamp = time.Now().UTC()
	clamped := clampTTL(ttl)

	return e, clamped, nil
}

func clampTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if ttl < minTTL {
		return minTTL
	}
	if ttl > maxTTL {
		return maxTTL
	}
	return ttl
}

// discardWrongMIME implements step 1: drop imgs whose MIME isn't
// image/*, drop obj if its MIME isn't text/html, drop field images
// whose MIME isn't image/*. Media with no MIME set is kept.
func discardWrongMIME(e *embedmodel.EmbedV1) {
	kept := e.Imgs[:0]
	for _, m := range e.Imgs {
		if m.MIME == "" || strings.HasPrefix(m.MIME, "image/") {
			kept = append(kept, m)
		}
	}
	e.Imgs = kept

	if e.Obj != nil && e.Obj.MIME != "" && !strings.HasPrefix(e.Obj.MIME, "text/html") {
		e.Obj = nil
	}

	for i := range e.Fields {
		f := &e.Fields[i]
		if f.Img != nil && f.Img.MIME != "" && !strings.HasPrefix(f.Img.MIME, "image/") {
			f.Img = nil
		}
	}
}

// elideRedundant implements step 2: canonical==url, description==title,
// thumb duplicating an already-present img are all cleared.
func elideRedundant(e *embedmodel.EmbedV1) {
	if e.Canonical != "" && e.Canonical == e.URL {
		e.Canonical = ""
	}
	if e.Description != "" && e.Description == e.Title {
		e.Description = ""
	}
	if e.Thumb != nil {
		for _, img := range e.Imgs {
			if img.URL != "" && img.URL == e.Thumb.URL {
				e.Thumb = nil
				break
			}
		}
	}
}

// removeEmptyFields implements step 3.
func removeEmptyFields(e *embedmodel.EmbedV1) {
	kept := e.Fields[:0]
	for _, f := range e.Fields {
		if f.Name == "" && f.Value == "" && f.Img == nil {
			continue
		}
		kept = append(kept, f)
	}
	e.Fields = kept
}

// demoteUndersizedSingleImage implements step 4: a single small image
// is more useful as a thumbnail than as the embed's defining image.
func demoteUndersizedSingleImage(e *embedmodel.EmbedV1) {
	if len(e.Imgs) != 1 || e.Thumb != nil {
		return
	}
	img := e.Imgs[0]
	if img.Width == nil || img.Height == nil {
		return
	}
	if *img.Width > thumbDemoteMaxDim || *img.Height > thumbDemoteMaxDim {
		return
	}
	e.Thumb = &img
	e.Imgs = nil
}

// clearMediaDescriptionDupes implements step 5.
func clearMediaDescriptionDupes(e *embedmodel.EmbedV1) {
	if e.Description == "" {
		return
	}
	embedmodel.VisitMedia(e, func(m *embedmodel.BasicMedia) {
		if m.Description == e.Description {
			m.Description = ""
		}
	})
}
