package transform

import (
	"net/url"
	"strings"
)

// Config enumerates the query parameters to strip from image URLs.
type Config struct {
	// RemoveWidthHeight strips the "width" and "height" parameters,
	// requesting the full-resolution asset.
	RemoveWidthHeight bool

	// RemoveWatermark strips the "watermark" parameter, requesting the
	// unwatermarked asset variant.
	RemoveWatermark bool

	// ExtraParams lists additional parameter names to strip,
	// matched case-sensitively.
	ExtraParams []string
}

// Enabled returns true if the config removes anything at all.
func (c Config) Enabled() bool {
	return c.RemoveWidthHeight || c.RemoveWatermark || len(c.ExtraParams) > 0
}

func (c Config) removed() map[string]struct{} {
	names := make(map[string]struct{}, len(c.ExtraParams)+3)
	if c.RemoveWidthHeight {
		names["width"] = struct{}{}
		names["height"] = struct{}{}
	}
	if c.RemoveWatermark {
		names["watermark"] = struct{}{}
	}
	for _, p := range c.ExtraParams {
		names[p] = struct{}{}
	}
	return names
}

// param is a single query parameter. hasValue distinguishes "?flag"
// from "?flag=".
type param struct {
	key      string
	value    string
	hasValue bool
}

// Apply rewrites the query string of rawURL according to cfg.
//
// The query is treated as an ordered list of key/value pairs: duplicate
// keys are preserved, and surviving parameters keep their original
// relative order. Removal is case-sensitive. Apply never fails; URLs it
// cannot parse, and URLs where nothing is removed, are returned
// unchanged. Applying the same config twice is a no-op:
//
//	Apply(Apply(u, cfg), cfg) == Apply(u, cfg)
func Apply(rawURL string, cfg Config) string {
	if !cfg.Enabled() {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return rawURL
	}

	params := parseQuery(u.RawQuery)
	remove := cfg.removed()

	kept := params[:0]
	changed := false
	for _, p := range params {
		if _, drop := remove[p.key]; drop {
			changed = true
			continue
		}
		kept = append(kept, p)
	}
	if !changed {
		return rawURL
	}

	u.RawQuery = encodeQuery(kept)
	return u.String()
}

// parseQuery splits a raw query into ordered parameters. Unlike
// url.ParseQuery it keeps duplicate keys and their relative order.
// Tokens with undecodable escapes are kept verbatim rather than dropped.
func parseQuery(rawQuery string) []param {
	var params []param
	for _, token := range strings.Split(rawQuery, "&") {
		if token == "" {
			continue
		}

		p := param{}
		if i := strings.IndexByte(token, '='); i >= 0 {
			p.key = token[:i]
			p.value = token[i+1:]
			p.hasValue = true
		} else {
			p.key = token
		}

		if k, err := url.QueryUnescape(p.key); err == nil {
			p.key = k
		}
		if v, err := url.QueryUnescape(p.value); err == nil {
			p.value = v
		}
		params = append(params, p)
	}
	return params
}

func encodeQuery(params []param) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.key))
		if p.hasValue {
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(p.value))
		}
	}
	return b.String()
}
