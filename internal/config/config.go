// Package config decodes the service's TOML configuration document
// (spec.md §6) and builds the typed structures the rest of the
// service consumes: extractor Config, cache backend declarations, and
// the ambient logging config.
package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/riverlink/embedsvc/internal/applog"
	"github.com/riverlink/embedsvc/internal/cachestore"
	"github.com/riverlink/embedsvc/internal/extract"
	"github.com/riverlink/embedsvc/internal/svcerr"
)

// siteDoc is one `[sites.<name>]` TOML table.
type siteDoc struct {
	Color     string            `toml:"color"`
	Pattern   string            `toml:"pattern"`
	Domains   []string          `toml:"domains"`
	UserAgent string            `toml:"user_agent"`
	Cookie    string            `toml:"cookie"`
	Fields    map[string]string `toml:"fields"`
}

// Document is the root decoded TOML shape.
type Document struct {
	MaxRedirects int      `toml:"max_redirects"`
	CacheSize    int      `toml:"cache_size"`
	TimeoutMS    int      `toml:"timeout"`
	Signed       bool     `toml:"signed"`
	ResolveMedia bool     `toml:"resolve_media"`
	Prefixes     []string `toml:"prefixes"`
	AllowHTML    []string `toml:"allow_html"`
	SkipOembed   []string `toml:"skip_oembed"`

	GoogleMapsAPIKey string `toml:"google_maps_api_key"`

	Limits struct {
		MaxHTMLSize  int64 `toml:"max_html_size"`
		MaxXMLSize   int64 `toml:"max_xml_size"`
		MaxMediaSize int64 `toml:"max_media_size"`
	} `toml:"limits"`

	UserAgents map[string]string            `toml:"user_agents"`
	Extractors map[string]map[string]string `toml:"extractors"`
	Sites      map[string]siteDoc           `toml:"sites"`

	// Cache backend declaration order is the tiered-cache priority
	// (spec.md §6); toml.MetaData.Keys() preserves table order on
	// decode, which is how Load recovers it since Go maps don't.
	Cache map[string]map[string]string `toml:"cache"`

	Log applog.Config `toml:"log"`
}

// Service is everything main needs to wire up the process: the
// extractor pipeline config, the ordered cache backend declarations,
// and ambient settings that don't belong to any one package.
type Service struct {
	Extract       *extract.Config
	CacheBackends []BackendDecl
	Timeout       time.Duration
	CacheSize     int
	Log           applog.Config
}

// BackendDecl names one `[cache.<name>]` table in declaration order.
type BackendDecl struct {
	Kind    string
	Options cachestore.Options
}

// Load reads and decodes the TOML document at path into a Service.
func Load(path string) (*Service, error) {
	var doc Document
	meta, err := toml.DecodeFile(path, &doc)
	if err != nil {
		return nil, svcerr.Config("document", err.Error())
	}
	return build(&doc, meta)
}

func build(doc *Document, meta toml.MetaData) (*Service, error) {
	sites := make([]extract.SiteConfig, 0, len(doc.Sites))
	// map iteration order is random; recover the TOML declaration
	// order from meta.Keys() so `sites.*.pattern` precedence (first
	// configured match wins, per SiteFor) is deterministic across
	// runs of the same config file.
	seen := make(map[string]bool, len(doc.Sites))
	for _, k := range meta.Keys() {
		if len(k) != 2 || k[0] != "sites" {
			continue
		}
		name := k[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		sd, ok := doc.Sites[name]
		if !ok {
			continue
		}
		sc := extract.SiteConfig{
			Name:      name,
			UserAgent: sd.UserAgent,
			Cookie:    sd.Cookie,
			Color:     sd.Color,
			Fields:    sd.Fields,
		}
		if sd.Pattern != "" {
			re, err := regexp.Compile(sd.Pattern)
			if err != nil {
				return nil, svcerr.ConfigInvalid(fmt.Sprintf("sites.%s.pattern", name), err)
			}
			sc.Pattern = re
		}
		if len(sd.Domains) > 0 {
			sc.Domains = make(map[string]struct{}, len(sd.Domains))
			for _, d := range sd.Domains {
				sc.Domains[d] = struct{}{}
			}
		}
		sites = append(sites, sc)
	}

	ec := &extract.Config{
		Limits: extract.Limits{
			MaxHTMLSize:  orDefault64(doc.Limits.MaxHTMLSize, 1<<20),
			MaxXMLSize:   orDefault64(doc.Limits.MaxXMLSize, 1<<20),
			MaxMediaSize: orDefault64(doc.Limits.MaxMediaSize, 10<<20),
		},
		ResolveMedia:     doc.ResolveMedia,
		Signed:           doc.Signed,
		MaxRedirects:     orDefault(doc.MaxRedirects, 2),
		Timeout:          time.Duration(orDefault(doc.TimeoutMS, 4000)) * time.Millisecond,
		Sites:            sites,
		Prefixes:         doc.Prefixes,
		AllowHTML:        doc.AllowHTML,
		SkipOEmbed:       doc.SkipOembed,
		UserAgents:       doc.UserAgents,
		GoogleMapsAPIKey: doc.GoogleMapsAPIKey,
	}

	var backends []BackendDecl
	backendSeen := make(map[string]bool, len(doc.Cache))
	for _, k := range meta.Keys() {
		if len(k) != 2 || k[0] != "cache" {
			continue
		}
		name := k[1]
		if backendSeen[name] {
			continue
		}
		backendSeen[name] = true
		opts, ok := doc.Cache[name]
		if !ok {
			continue
		}
		kind := opts["kind"]
		if kind == "" {
			kind = name
		}
		backends = append(backends, BackendDecl{Kind: kind, Options: cachestore.Options(opts)})
	}

	log := doc.Log
	if log.Level == "" && !log.Console.Enabled && !log.File.Enabled {
		log = applog.Default()
	}

	return &Service{
		Extract:       ec,
		CacheBackends: backends,
		Timeout:       ec.Timeout,
		CacheSize:     orDefault(doc.CacheSize, 10000),
		Log:           log,
	}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefault64(v, def int64) int64 {
	if v <= 0 {
		return def
	}
	return v
}
