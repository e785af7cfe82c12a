// Package extract implements the extractor interface and registry of
// spec.md §4.5, the generic extractor of §4.6, and the site-specific
// extractors of §4.7 (in the extract/sites subpackage).
package extract

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/riverlink/embedsvc/internal/domainmatch"
	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// Params carries the per-request parameters an extractor may consult;
// currently only the optional language tag from the `?l=` query
// parameter (spec.md §4.6 step 3).
type Params struct {
	Lang string
}

// Limits bounds the body sizes the generic extractor will read, per
// spec.md §6's `limits.*` config keys.
type Limits struct {
	MaxHTMLSize  int64
	MaxXMLSize   int64
	MaxMediaSize int64
}

// SiteConfig is one `sites.*` table from spec.md §6: per-site request
// customization (user agent, cookie) plus fallback CSS field selectors
// and a color override, keyed by site name.
type SiteConfig struct {
	Name      string
	Pattern   *regexp.Regexp
	Domains   map[string]struct{}
	UserAgent string
	Cookie    string
	Color     string
	Fields    map[string]string // embed field name -> CSS selector
}

// Matches reports whether host (already prefix-stripped per the
// configured `prefixes` list) belongs to this site, either by exact
// domain-set membership or by pattern.
func (s SiteConfig) Matches(host string) bool {
	if _, ok := s.Domains[host]; ok {
		return true
	}
	if s.Pattern != nil && s.Pattern.MatchString(host) {
		return true
	}
	return false
}

// Config is the subset of spec.md §6's TOML keys the extraction
// pipeline consults directly; internal/config builds this from the
// decoded TOML document.
type Config struct {
	Limits       Limits
	ResolveMedia bool
	Signed       bool
	MaxRedirects int
	Timeout      time.Duration
	Sites        []SiteConfig
	AllowHTML    []string // site names ("%name") or literal domains
	SkipOEmbed   []string
	UserAgents   map[string]string

	// Prefixes is the `prefixes` TOML list: stripped once each, in
	// order, from a host before site/allow_html/skip_oembed matching
	// (spec.md §9 Q3's `clean_domain`).
	Prefixes []string

	// GoogleMapsAPIKey enables sites.googlemaps's static-map image
	// synthesis; Extract falls back to a bare title embed when it is
	// empty rather than declining the URL.
	GoogleMapsAPIKey string
}

// CleanHost applies the configured prefix-stripping pass to host. Every
// site/allow_html/skip_oembed lookup goes through this first.
func (c *Config) CleanHost(host string) string {
	return domainmatch.CleanDomain(host, c.Prefixes)
}

// SiteFor returns the first configured site whose domain set or
// pattern matches host, per spec.md §4.6 step 2.
func (c *Config) SiteFor(host string) (SiteConfig, bool) {
	for _, s := range c.Sites {
		if s.Matches(host) {
			return s, true
		}
	}
	return SiteConfig{}, false
}

func matchesAnyPattern(patterns []string, siteName, host string) bool {
	for _, p := range patterns {
		if len(p) > 0 && p[0] == '%' {
			if p[1:] == siteName {
				return true
			}
			continue
		}
		if p == host {
			return true
		}
	}
	return false
}

// AllowsHTML reports whether site (possibly "") / host is permitted to
// surface `obj`/HTML-typed `video` slots, spec.md §4.6 step 12.
func (c *Config) AllowsHTML(siteName, host string) bool {
	return matchesAnyPattern(c.AllowHTML, siteName, host)
}

// SkipsOEmbed reports whether oEmbed discovery should be skipped for
// site/host.
func (c *Config) SkipsOEmbed(siteName, host string) bool {
	return matchesAnyPattern(c.SkipOEmbed, siteName, host)
}

// State is the shared, read-mostly service state every extractor call
// receives: the outbound HTTP client, resolved config, signing key for
// media URL signing (C8), and a logger. Built once at startup.
type State struct {
	Client     *http.Client
	Config     *Config
	Logger     *zap.Logger
	SigningKey []byte
}

// Extractor is the C5 contract: a cheap synchronous match, an optional
// one-shot startup hook, and the extraction call itself.
type Extractor interface {
	// Name identifies the extractor for logging, config lookups
	// (extractors.<name>.<field>), and %name site-pattern references.
	Name() string

	// Matches is a cheap, synchronous domain/path sniff; it must not
	// perform I/O.
	Matches(u *url.URL) bool

	// Setup runs once at boot, after config is loaded, before the
	// first request is served. A nil implementation is a no-op.
	Setup(ctx context.Context, st *State) error

	// Extract produces an embed and its cache TTL, or an error.
	Extract(ctx context.Context, st *State, u *url.URL, params Params) (*embedmodel.EmbedV1, time.Duration, error)
}
