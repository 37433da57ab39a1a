package model

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ImageReference is an absolute image URL discovered on a listing page,
// together with its lowercase path extension.
type ImageReference struct {
	// URL is the absolute URL of the image, exactly as discovered.
	URL string

	// Extension is the lowercase file extension of the URL path,
	// including the leading dot (e.g. ".jpg").
	Extension string
}

// NewImageReference builds an ImageReference from an absolute URL.
//
// The extension is derived from the URL path, not the query string, so
// "photo.JPG?width=100" yields ".jpg".
func NewImageReference(rawURL string) (ImageReference, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ImageReference{}, fmt.Errorf("parse image URL %q: %w", rawURL, err)
	}
	if !u.IsAbs() {
		return ImageReference{}, fmt.Errorf("image URL %q is not absolute", rawURL)
	}

	return ImageReference{
		URL:       rawURL,
		Extension: strings.ToLower(path.Ext(u.Path)),
	}, nil
}

// FileName returns the base name of the URL path, e.g. "photo.jpg" for
// ".../orderfiles/1/photo.jpg?width=100". The caller is responsible for
// sanitizing it and resolving collisions.
func (r ImageReference) FileName() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return ""
	}
	return path.Base(u.Path)
}
