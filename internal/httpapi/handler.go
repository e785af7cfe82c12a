// Package httpapi implements the HTTP frontend of spec.md §6: a
// single POST endpoint that accepts one raw URL in the request body
// and returns its embed, with status codes mapped from the
// internal/svcerr taxonomy of spec.md §7.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/riverlink/embedsvc/internal/coalesce"
	"github.com/riverlink/embedsvc/internal/embedmodel"
	"github.com/riverlink/embedsvc/internal/extract"
	"github.com/riverlink/embedsvc/internal/svcerr"
	"github.com/riverlink/embedsvc/internal/svcmetrics"
)

const maxBodySize = 8 << 10 // a URL has no business being larger than this

// negativeTTL is spec.md §7's CacheError expiry: a failed extraction is
// negatively cached for this long before the next request retries it.
const negativeTTL = 60 * time.Second

// Handler serves POST / per spec.md §6.
type Handler struct {
	Coordinator *coalesce.Coordinator
	Registry    *extract.Registry
	State       *extract.State
	Metrics     *svcmetrics.Metrics
	Logger      *zap.Logger

	// inFlight collapses concurrent HTTP requests for the same URL to
	// a single Coordinator.Resolve call, mirroring the teacher's own
	// processURLidx use of golang.org/x/sync/singleflight at this same
	// layer (internal/coalesce's hand-rolled coordinator handles the
	// cross-request cache semantics; this is purely about not dialing
	// out twice for two requests that land in the same instant).
	inFlight singleflight.Group
}

type resolved struct {
	embed     *embedmodel.EmbedV1
	expiresAt time.Time
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			h.Logger.Error("panic handling request", zap.Any("recover", rec))
			h.recordStatus(http.StatusInternalServerError, time.Now())
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}()

	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	if err != nil || len(body) == 0 || len(body) > maxBodySize {
		h.writeError(w, svcerr.InvalidURL(string(body), errors.New("missing or oversized body")), start)
		return
	}
	raw := string(body)

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		h.writeError(w, svcerr.InvalidURL(raw, err), start)
		return
	}

	lang := r.URL.Query().Get("l")

	embed, expiresAt, err := h.resolveOnce(r.Context(), u, raw, lang)
	if err != nil {
		h.writeError(w, err, start)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode([]any{expiresAt.UnixMilli(), embed})
	h.recordStatus(http.StatusOK, start)
}

func (h *Handler) resolveOnce(ctx context.Context, u *url.URL, raw, lang string) (*embedmodel.EmbedV1, time.Time, error) {
	v, err, _ := h.inFlight.Do(raw, func() (any, error) {
		// The cache key is the raw submitted URL, per spec.md §3/§4.2/§4.4
		// ("hash = blake3(url)"): CleanDomain exists only for
		// allow_html/skip_oembed/sites.* matching inside the extractor,
		// not for cache-key construction, and dropping the query string
		// here would collide distinct URLs onto the same cached embed.
		key := []byte(raw)
		embed, expiresAt, err := h.Coordinator.Resolve(ctx, key, negativeTTL, func(ctx context.Context) (*embedmodel.EmbedV1, time.Duration, error) {
			return h.Registry.Dispatch(ctx, h.State, u, extract.Params{Lang: lang})
		})
		if err != nil {
			return nil, err
		}
		return resolved{embed: embed, expiresAt: expiresAt}, nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}
	res := v.(resolved)
	return res.embed, res.expiresAt, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error, start time.Time) {
	se, ok := svcerr.As(err)
	status := http.StatusInternalServerError
	msg := "Internal Server Error"
	if ok {
		status = se.HTTPStatus()
		if status < 500 {
			msg = se.Error()
		}
	}
	h.recordStatus(status, start)
	http.Error(w, msg, status)
}

func (h *Handler) recordStatus(status int, start time.Time) {
	if h.Metrics == nil {
		return
	}
	class := statusClass(status)
	h.Metrics.RequestsTotal.WithLabelValues(class).Inc()
	h.Metrics.RequestDuration.WithLabelValues(class).Observe(time.Since(start).Seconds())
}

func statusClass(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
