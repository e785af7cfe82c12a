package extract

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/riverlink/embedsvc/internal/svcerr"
)

type manifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

type manifestDoc struct {
	Name        string         `json:"name"`
	ShortName   string         `json:"short_name"`
	Description string         `json:"description"`
	Icons       []manifestIcon `json:"icons"`
}

// fetchManifest retrieves and decodes a Web App Manifest, per
// spec.md §4.6 step 9.
func fetchManifest(ctx context.Context, client *http.Client, manifestURL string) (*manifestDoc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, svcerr.Failure(resp.StatusCode)
	}
	var doc manifestDoc
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return nil, svcerr.JSON(err)
	}
	return &doc, nil
}

// manifestName picks short_name over name only when name is absent,
// matching the teacher's general "prefer the fuller value, fall back
// to the shorter one" pattern seen across its metadata mapping.
func (d *manifestDoc) manifestName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ShortName
}

// bestIcon returns the URL of the smallest icon whose larger
// dimension is <= 512px, per spec.md §4.6 step 9. Icons with
// unparsable or "any" sizes are ignored for this selection.
func (d *manifestDoc) bestIcon(base *url.URL) (string, bool) {
	bestArea := -1
	var bestSrc string
	for _, icon := range d.Icons {
		w, h, ok := parseIconSizes(icon.Sizes)
		if !ok || w > 512 || h > 512 {
			continue
		}
		area := w * h
		if bestArea == -1 || area < bestArea {
			bestArea = area
			bestSrc = icon.Src
		}
	}
	if bestSrc == "" {
		return "", false
	}
	return resolveURL(base, bestSrc), true
}

func parseIconSizes(sizes string) (w, h int, ok bool) {
	sizes = strings.TrimSpace(sizes)
	if sizes == "" || strings.EqualFold(sizes, "any") {
		return 0, 0, false
	}
	first := strings.Fields(sizes)[0]
	parts := strings.SplitN(strings.ToLower(first), "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err1 := strconv.Atoi(parts[0])
	h, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return w, h, true
}
