// Package portal knows how to talk to the Diakrit portal: it builds the
// listing page URL for an order id and fetches the page with retry on
// transient failure.
//
//	client, err := portal.NewClient("https://portal.diakrit.com",
//	    httpClient, retryPolicy, log)
//	html, err := client.FetchListing(ctx, "13011948")
//
// Listing failures that will not resolve on retry are wrapped in
// ErrListingUnavailable and abort the run.
package portal
