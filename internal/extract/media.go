package extract

import (
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

// resolveMedia fills in MIME and, for images, dimensions for every
// media slot that still lacks them, per spec.md §4.6 step 11: HEAD
// for the HTML object slot and field images, a partial GET + image
// dimension sniff for image slots. Runs one goroutine per slot via
// errgroup, the same bounded fan-out idiom C3's tiered cache uses.
func resolveMedia(ctx context.Context, client *http.Client, e *embedmodel.EmbedV1, maxMediaSize int64) {
	g, gctx := errgroup.WithContext(ctx)

	if e.Obj != nil && e.Obj.MIME == "" && e.Obj.URL != "" {
		m := e.Obj
		g.Go(func() error {
			m.MIME, _ = headContentType(gctx, client, m.URL)
			return nil
		})
	}
	for i := range e.Fields {
		f := &e.Fields[i]
		if f.Img == nil || f.Img.MIME != "" || f.Img.URL == "" {
			continue
		}
		m := f.Img
		g.Go(func() error {
			m.MIME, _ = headContentType(gctx, client, m.URL)
			return nil
		})
	}
	for i := range e.Imgs {
		m := &e.Imgs[i]
		if m.URL == "" || (m.Width != nil && m.Height != nil && m.MIME != "") {
			continue
		}
		g.Go(func() error {
			sniffImage(gctx, client, m, maxMediaSize)
			return nil
		})
	}
	if e.Thumb != nil && e.Thumb.URL != "" && (e.Thumb.Width == nil || e.Thumb.Height == nil) {
		m := e.Thumb
		g.Go(func() error {
			sniffImage(gctx, client, m, maxMediaSize)
			return nil
		})
	}
	if e.Video != nil && e.Video.MIME == "" && e.Video.URL != "" {
		m := e.Video
		g.Go(func() error {
			m.MIME, _ = headContentType(gctx, client, m.URL)
			return nil
		})
	}
	if e.Audio != nil && e.Audio.MIME == "" && e.Audio.URL != "" {
		m := e.Audio
		g.Go(func() error {
			m.MIME, _ = headContentType(gctx, client, m.URL)
			return nil
		})
	}

	_ = g.Wait() // best-effort: a failed probe just leaves MIME/dims unset
}

func headContentType(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	return strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0], nil
}

// sniffImage issues a partial GET (bounded to maxMediaSize/2, the same
// ratio the teacher's image.go effectively reads via its chunk limit)
// and decodes just enough of the stream to recover the image's pixel
// dimensions and MIME type.
func sniffImage(ctx context.Context, client *http.Client, m *embedmodel.BasicMedia, maxMediaSize int64) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.URL, nil)
	if err != nil {
		return
	}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return
	}
	limit := maxMediaSize / 2
	if limit <= 0 {
		limit = 1 << 18
	}
	cfg, format, err := image.DecodeConfig(io.LimitReader(resp.Body, limit))
	if err != nil {
		if ct := strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0]; ct != "" {
			m.MIME = ct
		}
		return
	}
	w, h := cfg.Width, cfg.Height
	m.Width, m.Height = &w, &h
	if m.MIME == "" {
		m.MIME = "image/" + format
	}
}
