package extract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riverlink/embedsvc/internal/embedmodel"
)

func encodedTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSniffImageSetsDimensionsAndMIME(t *testing.T) {
	pngBytes := encodedTestPNG(t, 64, 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngBytes)
	}))
	defer srv.Close()

	m := &embedmodel.BasicMedia{URL: srv.URL + "/i.png"}
	sniffImage(context.Background(), srv.Client(), m, 1<<20)

	if m.Width == nil || m.Height == nil {
		t.Fatalf("expected dimensions set, got %+v", m)
	}
	if *m.Width != 64 || *m.Height != 32 {
		t.Fatalf("got w=%d h=%d", *m.Width, *m.Height)
	}
	if m.MIME != "image/png" {
		t.Fatalf("got mime %q", m.MIME)
	}
}

func TestSniffImageFallsBackToContentTypeOnDecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/webp")
		w.Write([]byte("not a real image"))
	}))
	defer srv.Close()

	m := &embedmodel.BasicMedia{URL: srv.URL + "/i.webp"}
	sniffImage(context.Background(), srv.Client(), m, 1<<20)

	if m.Width != nil || m.Height != nil {
		t.Fatalf("expected no dimensions on decode failure, got %+v", m)
	}
	if m.MIME != "image/webp" {
		t.Fatalf("expected content-type fallback, got %q", m.MIME)
	}
}

func TestHeadContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4; charset=binary")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ct, err := headContentType(context.Background(), srv.Client(), srv.URL+"/v.mp4")
	if err != nil {
		t.Fatal(err)
	}
	if ct != "video/mp4" {
		t.Fatalf("got %q", ct)
	}
}

func TestResolveMediaFillsObjAndImageSlots(t *testing.T) {
	pngBytes := encodedTestPNG(t, 10, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.Header().Set("Content-Type", "text/html")
		case http.MethodGet:
			w.Header().Set("Content-Type", "image/png")
			w.Write(pngBytes)
		}
	}))
	defer srv.Close()

	e := &embedmodel.EmbedV1{
		URL:  "https://ex.com/a",
		Obj:  &embedmodel.BasicMedia{URL: srv.URL + "/obj.html"},
		Imgs: []embedmodel.BasicMedia{{URL: srv.URL + "/i.png"}},
	}
	resolveMedia(context.Background(), srv.Client(), e, 1<<20)

	if e.Obj.MIME != "text/html" {
		t.Fatalf("got obj mime %q", e.Obj.MIME)
	}
	if e.Imgs[0].Width == nil || *e.Imgs[0].Width != 10 {
		t.Fatalf("got imgs[0] %+v", e.Imgs[0])
	}
}
