// Package embedmodel defines the versioned embed record returned to
// clients: title, description, canonical link, provider, media
// attachments, author, footer, fields and flags. Only the V1 shape
// exists today; Version() is how a future V2 would be told apart on
// the wire.
package embedmodel

import (
	"encoding/json"
	"fmt"
	"time"
)

// Type is the coarse media kind an embed is classified as. It is
// derived, never set directly by an extractor except as a fallback
// hint for Article (see DeriveType).
type Type string

const (
	TypeImage   Type = "img"
	TypeAudio   Type = "audio"
	TypeVideo   Type = "vid"
	TypeHTML    Type = "html"
	TypeLink    Type = "link"
	TypeArticle Type = "article"
)

// Flags is a bitfield of content-warning markers.
type Flags uint32

const (
	FlagSpoiler Flags = 1 << iota
	FlagAdult
	FlagGraphic
)

// Has reports whether all bits in f are set in fl.
func (fl Flags) Has(f Flags) bool { return fl&f == f }

// Set returns fl with f's bits set.
func (fl Flags) Set(f Flags) Flags { return fl | f }

// VersionedEmbed is satisfied by every concrete embed version.
type VersionedEmbed interface {
	Version() string
}

// Author is the byline attached to an embed.
type Author struct {
	Name string      `json:"n"`
	URL  string      `json:"u,omitempty"`
	Icon *BasicMedia `json:"i,omitempty"`
}

// Provider describes the site or service an embed originated from.
type Provider struct {
	Name string      `json:"n,omitempty"`
	URL  string      `json:"u,omitempty"`
	Icon *BasicMedia `json:"i,omitempty"`
}

// Footer is a small trailing annotation, e.g. a like/reply count line.
type Footer struct {
	Text string      `json:"t"`
	Icon *BasicMedia `json:"i,omitempty"`
}

// Field is one entry of an embed's ordered key/value field list.
type Field struct {
	Name  string      `json:"n"`
	Value string      `json:"v"`
	Img   *BasicMedia `json:"img,omitempty"`
	Block bool        `json:"b,omitempty"`
}

// EmbedV1 is the only defined embed version.
type EmbedV1 struct {
	Timestamp   time.Time   `json:"ts"`
	Type        Type        `json:"ty,omitempty"`
	Flags       Flags       `json:"f,omitempty"`
	URL         string      `json:"u"`
	Canonical   string      `json:"c,omitempty"`
	Title       string      `json:"t,omitempty"`
	Description string      `json:"d,omitempty"`
	Color       *uint32     `json:"ac,omitempty"`
	Author      *Author     `json:"au,omitempty"`
	Provider    *Provider   `json:"p,omitempty"`
	Obj         *BasicMedia `json:"obj,omitempty"`
	Imgs        []BasicMedia `json:"img,omitempty"`
	Audio       *BasicMedia `json:"audio,omitempty"`
	Video       *BasicMedia `json:"vid,omitempty"`
	Thumb       *BasicMedia `json:"thumb,omitempty"`
	Fields      []Field     `json:"fields,omitempty"`
	Footer      *Footer     `json:"footer,omitempty"`
}

func (e *EmbedV1) Version() string { return "1" }

// embedV1Alias is EmbedV1 stripped of its Marshal/UnmarshalJSON methods
// (a plain type conversion drops them) so wireEnvelope can embed it
// without accidentally promoting those methods back onto itself.
type embedV1Alias EmbedV1

// wireEnvelope is how EmbedV1 actually serializes: the version tag sits
// alongside the rest of the fields, not nested under it.
type wireEnvelope struct {
	V string `json:"v"`
	embedV1Alias
}

// MarshalJSON emits the stable wire format of spec.md §6: {"v":"1",...}.
func (e EmbedV1) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireEnvelope{V: "1", embedV1Alias: embedV1Alias(e)})
}

// UnmarshalJSON accepts the same envelope, ignoring the version tag
// (DecodeEmbed is what dispatches on it).
func (e *EmbedV1) UnmarshalJSON(data []byte) error {
	var w wireEnvelope
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*e = EmbedV1(w.embedV1Alias)
	return nil
}

// DecodeEmbed reads the version tag out of data and dispatches to the
// matching concrete type. Only "1" exists today.
func DecodeEmbed(data []byte) (VersionedEmbed, error) {
	var probe struct {
		V string `json:"v"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("embedmodel: decode version tag: %w", err)
	}
	switch probe.V {
	case "1", "":
		var e EmbedV1
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("embedmodel: decode v1 embed: %w", err)
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("embedmodel: unsupported embed version %q", probe.V)
	}
}

// Empty reports whether e carries no title, description or media at all.
func (e *EmbedV1) Empty() bool {
	return e.Title == "" && e.Description == "" &&
		e.Obj == nil && len(e.Imgs) == 0 && e.Audio == nil && e.Video == nil && e.Thumb == nil
}

// DeriveType recomputes e.Type from populated media slots per spec.md §3:
// images win, then video, then audio, then an html object; an
// extractor-assigned Article is preserved as the last fallback ahead of
// the default Link.
func DeriveType(e *EmbedV1) Type {
	switch {
	case len(e.Imgs) > 0:
		return TypeImage
	case e.Video != nil:
		return TypeVideo
	case e.Audio != nil:
		return TypeAudio
	case e.Obj != nil:
		return TypeHTML
	case e.Type == TypeArticle:
		return TypeArticle
	default:
		return TypeLink
	}
}
