// Package transform rewrites image URL query strings to strip
// presentation parameters such as width, height and watermark.
//
// The portal serves scaled, watermarked renditions by default and
// encodes the rendition options in the query string. Removing them
// requests the raw asset:
//
//	cfg := transform.Config{RemoveWidthHeight: true, RemoveWatermark: true}
//	transform.Apply("https://p/orderfiles/1/a.jpg?width=100&height=200&watermark=1", cfg)
//	// "https://p/orderfiles/1/a.jpg"
//
// Apply preserves the relative order of surviving parameters, keeps
// duplicate keys, never fails and is idempotent.
package transform
