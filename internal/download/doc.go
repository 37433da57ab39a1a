// Package download provides the scheduling logic for fetching the
// discovered images of an order.
//
// # Manager
//
// The Manager coordinates the whole retrieval phase:
//
//  1. Rewrite each discovered URL per the transform config
//  2. Derive destination names, resolving collisions deterministically
//  3. Fetch each image with per-task retry and backoff
//  4. Persist payloads atomically
//  5. Report progress after every terminal task
//
// # Basic Usage
//
//	manager := download.NewManager(download.Options{
//	    Client:    client,
//	    Retry:     settings.RetryPolicy(),
//	    Transform: settings.TransformConfig(),
//	    OutputDir: settings.OutputDir,
//	    Workers:   settings.WorkerCount(),
//	    OnProgress: func(completed, total int) {
//	        fmt.Printf("%d/%d\n", completed, total)
//	    },
//	})
//	summary, err := manager.Run(ctx, refs)
//
// # Concurrency
//
// Tasks run under an errgroup bounded by Workers; Workers == 1 is the
// sequential degenerate case. Completion order is unspecified. Task
// outcomes are independent: one task failing terminally never aborts
// its siblings.
//
// # Cancellation
//
// Cancelling the run context stops dispatching queued tasks. In-flight
// tasks finish naturally and never leave a partial file visible; tasks
// that never started are reported Pending and the summary is marked
// cancelled.
package download
