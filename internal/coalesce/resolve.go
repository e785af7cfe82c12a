package coalesce

import (
	"context"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// maxRetries bounds the re-entry loop triggered by a value-less
// publisher close (Open Question 1 of spec.md §9: resolved as a
// bounded retry into Get rather than an unbounded one or a hard
// failure).
const maxRetries = 5

// Extract runs the single extraction attempt for a Miss-owner token;
// supplied by the caller (the extractor registry dispatch in
// practice), kept generic here so this package has no dependency on
// the extraction pipeline.
type Extract func(ctx context.Context) (*embedmodel.EmbedV1, time.Duration, error)

// Resolve is the per-request orchestration entry point: it performs
// the full get/wait/extract/put cycle described across spec.md §4.4's
// algorithms, looping a bounded number of times if it observes a
// torn-down publisher. The returned time.Time is the embed's expiry,
// the first element of the `[expiresAt, embed]` HTTP response envelope
// (spec.md §6).
func (c *Coordinator) Resolve(ctx context.Context, key []byte, negativeTTL time.Duration, extract Extract) (*embedmodel.EmbedV1, time.Time, error) {
	for attempt := 0; attempt < maxRetries; attempt++ {
		res := c.Get(ctx, key)
		switch res.Outcome {
		case Hit:
			return res.Embed, res.ExpiresAt, nil
		case Errored:
			return nil, time.Time{}, res.Err
		case Pending:
			state, retry := res.Sub.Wait(ctx)
			if retry {
				continue
			}
			if state.Errored {
				return nil, time.Time{}, state.Err
			}
			return state.Ready, state.ExpiresAt, nil
		case Miss:
			embed, ttl, err := extract(ctx)
			if err != nil {
				final := c.PutErrored(ctx, res.Token, err, negativeTTL)
				if final.Errored {
					return nil, time.Time{}, final.Err
				}
				// A concurrent Ready put with a later expiresAt
				// superseded our error (Ready always wins).
				return final.Ready, final.ExpiresAt, nil
			}
			final := c.PutReady(ctx, res.Token, embed, c.nowFn().Add(ttl))
			return final.Ready, final.ExpiresAt, nil
		}
	}
	return nil, time.Time{}, context.DeadlineExceeded
}
