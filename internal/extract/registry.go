package extract

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// Registry is the ordered dispatch table of spec.md §4.5: first match
// wins, and the generic extractor — registered last by the caller — is
// expected to match every URL so dispatch never falls through.
type Registry struct {
	extractors []Extractor
}

// NewRegistry builds a registry from extractors in priority order.
// Callers must append the generic, catch-all extractor last.
func NewRegistry(extractors ...Extractor) *Registry {
	return &Registry{extractors: extractors}
}

// Setup runs every extractor's one-shot startup hook in registration
// order. A failure here is a fatal config error at boot, per spec.md
// §4.5 ("Config errors from factory construction are fatal at
// startup").
func (r *Registry) Setup(ctx context.Context, st *State) error {
	for _, e := range r.extractors {
		if err := e.Setup(ctx, st); err != nil {
			return fmt.Errorf("extractor %q setup: %w", e.Name(), err)
		}
	}
	return nil
}

// Dispatch finds the first matching extractor and runs it.
func (r *Registry) Dispatch(ctx context.Context, st *State, u *url.URL, params Params) (*embedmodel.EmbedV1, time.Duration, error) {
	e := r.Lookup(u)
	if e == nil {
		return nil, 0, fmt.Errorf("extract: no extractor matched %s (generic extractor missing from registry?)", u)
	}
	return e.Extract(ctx, st, u, params)
}

// Lookup returns the first extractor whose Matches reports true, or
// nil if the registry has no catch-all.
func (r *Registry) Lookup(u *url.URL) Extractor {
	for _, e := range r.extractors {
		if e.Matches(u) {
			return e
		}
	}
	return nil
}
