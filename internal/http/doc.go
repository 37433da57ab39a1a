// Package http provides the HTTP client shared by the listing fetcher
// and the download scheduler.
//
// The Client makes single attempts and classifies failures; retrying is
// expressed as an explicit RetryPolicy value owned by the callers:
//
//	client := http.NewClient(http.DefaultOptions())
//	policy := http.DefaultRetryPolicy()
//
//	var body []byte
//	var err error
//	for attempt := 1; attempt <= policy.Attempts(); attempt++ {
//	    if err = policy.Wait(ctx, attempt); err != nil {
//	        break
//	    }
//	    body, err = client.Get(ctx, url)
//	    if err == nil || !policy.ShouldRetry(err) {
//	        break
//	    }
//	}
//
// # Error taxonomy
//
// Non-2xx responses surface as *StatusError. IsTransient treats network
// failures, 5xx and 429 as retryable; other 4xx statuses and context
// cancellation are terminal.
package http
