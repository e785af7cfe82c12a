package coalesce

import (
	"context"
	"time"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// RestingState is the terminal value a publisher carries to subscribers
// and the value an L1 bucket stores between extractions: either a Ready
// embed with its expiry, or a negative-cache (Errored) outcome.
type RestingState struct {
	Ready     *embedmodel.EmbedV1
	ExpiresAt time.Time
	Errored   bool
	Err       error
}

func readyState(embed *embedmodel.EmbedV1, expiresAt time.Time) RestingState {
	return RestingState{Ready: embed, ExpiresAt: expiresAt}
}

func erroredState(err error, expiresAt time.Time) RestingState {
	return RestingState{Errored: true, Err: err, ExpiresAt: expiresAt}
}

// publisher is a one-shot broadcast channel. Per spec.md §4.4's put
// algorithm, the value is set before the pending map entry is removed,
// and the channel is only closed last, so late subscribers that already
// hold a reference always observe the published value before the
// channel close wakes them.
//
// A publisher can also be closed with no value ever set (torn down by a
// panic-recovery path); waiters then see a zero state and ok=false
// (Subscription.Wait reports it as retry=true) and must treat it
// as a transient failure, retrying via Coordinator.Get.
type publisher struct {
	done  chan struct{}
	value *RestingState
}

func newPublisher() *publisher {
	return &publisher{done: make(chan struct{})}
}

// setValue must be called at most once, before close, and never
// concurrently with itself; the coordinator holds this invariant by
// construction (only the Miss-owner ever calls it).
func (p *publisher) setValue(v RestingState) {
	p.value = &v
}

func (p *publisher) close() {
	close(p.done)
}

func (p *publisher) isClosed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// wait blocks until the publisher closes or ctx is done. ok is false
// either on ctx expiry or on a value-less close (torn-down publisher).
func (p *publisher) wait(ctx context.Context) (RestingState, bool) {
	select {
	case <-p.done:
		if p.value == nil {
			return RestingState{}, false
		}
		return *p.value, true
	case <-ctx.Done():
		return RestingState{}, false
	}
}

// Subscription is handed to a Pending caller; Wait resolves it to the
// eventual outcome of the extraction already in flight.
type Subscription struct {
	pub *publisher
}

// Wait blocks for the in-flight extraction's outcome. retry=true means
// the publisher closed without ever publishing a value (the owner was
// torn down, e.g. by a panic) — the caller should re-enter Get.
func (s *Subscription) Wait(ctx context.Context) (state RestingState, retry bool) {
	v, ok := s.pub.wait(ctx)
	if !ok {
		return RestingState{}, true
	}
	return v, false
}
