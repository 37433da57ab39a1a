// Package extract discovers image references on a portal listing page.
//
// Links walks the parsed markup for elements carrying a resource
// location (anchor hrefs and image srcs), resolves them to absolute
// URLs and filters them by path extension:
//
//	base, _ := url.Parse("https://portal.diakrit.com")
//	refs, err := extract.Links(html, base, extract.Options{
//	    Extensions:   []string{".jpg", ".png"},
//	    PathContains: "/orderfiles/",
//	})
//
// Results are deduplicated by exact URL and returned in first-seen
// document order.
package extract
