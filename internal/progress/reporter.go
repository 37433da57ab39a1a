// Package progress tracks task completion across download workers.
package progress

import (
	"fmt"
	"io"
	"sync/atomic"
)

// Callback receives (completed, total) after every terminal task.
type Callback func(completed, total int)

// Reporter is a thread-safe completion counter shared by the download
// workers. The counter is monotonically increasing; each task is
// counted exactly once, on reaching a terminal status.
type Reporter struct {
	total     int
	completed atomic.Int64
	onUpdate  Callback
}

// NewReporter creates a reporter for a fixed number of tasks. onUpdate
// may be nil.
func NewReporter(total int, onUpdate Callback) *Reporter {
	return &Reporter{total: total, onUpdate: onUpdate}
}

// Done records one completed task and fires the callback. It returns
// the new completion count.
func (r *Reporter) Done() int {
	n := int(r.completed.Add(1))
	if r.onUpdate != nil {
		r.onUpdate(n, r.total)
	}
	return n
}

// Completed returns the current completion count.
func (r *Reporter) Completed() int {
	return int(r.completed.Load())
}

// Total returns the number of tasks being tracked.
func (r *Reporter) Total() int {
	return r.total
}

// ConsoleCallback returns a callback that rewrites a single progress
// line on w, finishing it with a newline once the last task completes.
func ConsoleCallback(w io.Writer) Callback {
	return func(completed, total int) {
		percent := 0.0
		if total > 0 {
			percent = float64(completed) / float64(total) * 100
		}
		fmt.Fprintf(w, "\rDownloading %d/%d (%.0f%%)", completed, total, percent)
		if completed >= total {
			fmt.Fprintln(w)
		}
	}
}
