package embedmodel

// BasicMedia describes one media attachment: a primary URL plus an
// ordered list of alternates of the same shape (transcodes, sizes,
// mirrors). Signature, when present, authenticates URL to a downstream
// media proxy (see internal/normalize).
type BasicMedia struct {
	URL         string       `json:"u"`
	Description string       `json:"d,omitempty"`
	Signature   string       `json:"s,omitempty"`
	Height      *int         `json:"h,omitempty"`
	Width       *int         `json:"w,omitempty"`
	MIME        string       `json:"m,omitempty"`
	Alternates  []BasicMedia `json:"a,omitempty"`
}

// NormalizeMedia promotes the first alternate up into m when m.URL is
// empty, iteratively, per spec.md §4.1. Media alternates form a finite
// tree (no cycles), so this always terminates.
func NormalizeMedia(m *BasicMedia) {
	if m == nil {
		return
	}
	for m.URL == "" && len(m.Alternates) > 0 {
		next := m.Alternates[0]
		remaining := m.Alternates[1:]
		m.URL = next.URL
		m.Description = next.Description
		m.Signature = next.Signature
		m.Height = next.Height
		m.Width = next.Width
		m.MIME = next.MIME
		alts := make([]BasicMedia, 0, len(next.Alternates)+len(remaining))
		alts = append(alts, next.Alternates...)
		alts = append(alts, remaining...)
		m.Alternates = alts
	}
}

// TextField identifies which bounded text attribute a VisitText
// callback is looking at, so callers can apply field-specific length
// limits (see internal/normalize trim.go).
type TextField int

const (
	TextTitle TextField = iota
	TextDescription
	TextAuthorName
	TextProviderName
	TextMediaDescription
	TextFieldName
	TextFieldValue
	TextFooterText
)

// VisitText calls fn for every bounded text string reachable from e,
// passing a pointer so callers can rewrite it in place (used by
// internal/normalize's text trimming pass).
func VisitText(e *EmbedV1, fn func(kind TextField, s *string)) {
	if e == nil {
		return
	}
	fn(TextTitle, &e.Title)
	fn(TextDescription, &e.Description)
	if e.Author != nil {
		fn(TextAuthorName, &e.Author.Name)
	}
	if e.Provider != nil {
		fn(TextProviderName, &e.Provider.Name)
	}
	if e.Footer != nil {
		fn(TextFooterText, &e.Footer.Text)
	}
	for i := range e.Fields {
		fn(TextFieldName, &e.Fields[i].Name)
		fn(TextFieldValue, &e.Fields[i].Value)
	}
	VisitMedia(e, func(m *BasicMedia) {
		fn(TextMediaDescription, &m.Description)
	})
}

// VisitMedia calls fn for every primary BasicMedia slot reachable from
// e: the main slots (obj, imgs, audio, video, thumb) plus the
// author/provider/footer icons and field images. Alternates are not
// visited; use VisitFullMedia for that.
func VisitMedia(e *EmbedV1, fn func(*BasicMedia)) {
	if e == nil {
		return
	}
	if e.Obj != nil {
		fn(e.Obj)
	}
	for i := range e.Imgs {
		fn(&e.Imgs[i])
	}
	if e.Audio != nil {
		fn(e.Audio)
	}
	if e.Video != nil {
		fn(e.Video)
	}
	if e.Thumb != nil {
		fn(e.Thumb)
	}
	if e.Author != nil && e.Author.Icon != nil {
		fn(e.Author.Icon)
	}
	if e.Provider != nil && e.Provider.Icon != nil {
		fn(e.Provider.Icon)
	}
	if e.Footer != nil && e.Footer.Icon != nil {
		fn(e.Footer.Icon)
	}
	for i := range e.Fields {
		if e.Fields[i].Img != nil {
			fn(e.Fields[i].Img)
		}
	}
}

// VisitFullMedia is VisitMedia extended to also recurse into every
// alternate of every visited BasicMedia.
func VisitFullMedia(e *EmbedV1, fn func(*BasicMedia)) {
	VisitMedia(e, func(m *BasicMedia) {
		visitAlternates(m, fn)
	})
}

func visitAlternates(m *BasicMedia, fn func(*BasicMedia)) {
	fn(m)
	for i := range m.Alternates {
		visitAlternates(&m.Alternates[i], fn)
	}
}
