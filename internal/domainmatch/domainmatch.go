// Package domainmatch computes a URL's `clean_domain` (spec.md §9 Q3)
// and implements the length-bucketed prefix-set membership test the
// teacher uses for its blocklist, grown here into prefix stripping
// over a host (each configured prefix at most once) instead of a
// single substring match over a full URL.
package domainmatch

import "sort"

// CleanDomain strips each prefix in prefixes from host at most once,
// in the order given, left to right. Resolved per spec.md §9 Q3 as a
// single bounded pass rather than iterating to a fixed point: a
// config with overlapping prefixes (e.g. "www." and "www.old.") can
// never loop, which matters on attacker-controlled or malformed host
// strings since spec.md leaves the exact idempotence behavior
// unspecified.
func CleanDomain(host string, prefixes []string) string {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if len(host) >= len(p) && host[:len(p)] == p {
			host = host[len(p):]
		}
	}
	return host
}

// PrefixSet is the teacher's `prefixMap`: a fast membership test
// against a fixed set of prefixes, bucketed by prefix length so a
// candidate string is only compared against prefixes it could
// possibly match.
type PrefixSet struct {
	prefixes map[string]struct{}
	lengths  []int // sorted ascending, deduplicated
}

// NewPrefixSet builds a PrefixSet from prefixes. Returns nil if
// prefixes is empty or contains only the empty string, matching the
// teacher's "uninitialized prefixMap matches nothing" convention.
func NewPrefixSet(prefixes []string) *PrefixSet {
	if len(prefixes) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(prefixes))
	lens := make([]int, 0, len(prefixes))
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		if _, ok := m[p]; !ok {
			lens = append(lens, len(p))
		}
		m[p] = struct{}{}
	}
	if len(m) == 0 {
		return nil
	}
	sort.Ints(lens)
	deduped := lens[:1]
	for i := 1; i < len(lens); i++ {
		if lens[i] != lens[i-1] {
			deduped = append(deduped, lens[i])
		}
	}
	return &PrefixSet{prefixes: m, lengths: deduped}
}

// Match reports whether s has any configured prefix.
func (p *PrefixSet) Match(s string) bool {
	if p == nil || len(p.prefixes) == 0 {
		return false
	}
	if len(s) < p.lengths[0] {
		return false
	}
	for _, n := range p.lengths {
		if len(s) < n {
			continue
		}
		if _, ok := p.prefixes[s[:n]]; ok {
			return true
		}
	}
	return false
}
