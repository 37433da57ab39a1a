package extract

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"imagedl/internal/model"
)

// ErrUnparsable is returned when the listing page cannot be parsed as
// markup at all. Pages that parse but contain no matching links yield
// an empty result, not an error.
var ErrUnparsable = errors.New("extract: unparsable markup")

// Options controls which discovered links are kept.
type Options struct {
	// Extensions is the set of allowed path extensions, lowercase with
	// a leading dot (e.g. ".jpg"). Matching is case-insensitive on the
	// URL side.
	Extensions []string

	// PathContains, when non-empty, requires the URL path to contain
	// this substring. The portal keeps order assets under
	// "/orderfiles/", which filters out navigation links.
	PathContains string
}

func (o Options) allowed(ext string) bool {
	for _, e := range o.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Links scans the listing page markup for image references.
//
// It collects href attributes of anchors and src attributes of images,
// resolves each against base to an absolute URL, keeps only those whose
// path extension is allowed, and dedupes by exact URL string, keeping
// first-seen document order. An empty result is not an error.
func Links(html string, base *url.URL, opts Options) ([]model.ImageReference, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}

	seen := make(map[string]struct{})
	var refs []model.ImageReference

	collect := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}

		u, err := url.Parse(raw)
		if err != nil {
			return
		}
		abs := base.ResolveReference(u)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			return
		}

		if opts.PathContains != "" && !strings.Contains(abs.Path, opts.PathContains) {
			return
		}
		if !opts.allowed(strings.ToLower(path.Ext(abs.Path))) {
			return
		}

		key := abs.String()
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		ref, err := model.NewImageReference(key)
		if err != nil {
			return
		}
		refs = append(refs, ref)
	}

	doc.Find("a[href], img[src]").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok {
			collect(href)
		}
		if src, ok := s.Attr("src"); ok {
			collect(src)
		}
	})

	return refs, nil
}
