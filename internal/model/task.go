package model

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the status of a download task.
type TaskStatus string

const (
	// TaskStatusPending means the task is queued but not started.
	TaskStatusPending TaskStatus = "Pending"

	// TaskStatusInFlight means the download is in progress, including
	// retry attempts.
	TaskStatusInFlight TaskStatus = "InFlight"

	// TaskStatusSucceeded means the file was downloaded and persisted.
	TaskStatusSucceeded TaskStatus = "Succeeded"

	// TaskStatusFailed means the task failed terminally.
	TaskStatusFailed TaskStatus = "Failed"
)

// String returns the string representation of TaskStatus.
func (ts TaskStatus) String() string {
	return string(ts)
}

// Terminal returns true if the status is a terminal state.
func (ts TaskStatus) Terminal() bool {
	return ts == TaskStatusSucceeded || ts == TaskStatusFailed
}

// DownloadTask represents a single image download.
//
// Tasks are created and owned by the download scheduler; other
// components only ever see the DownloadResult snapshot.
type DownloadTask struct {
	ID          string
	SourceURL   string // URL actually fetched (post-transform)
	OriginalURL string // URL as discovered on the listing page
	Path        string // destination file path
	Attempts    int
	Status      TaskStatus
	StartedAt   time.Time
	FinishedAt  time.Time
}

// NewDownloadTask creates a pending task for the given source URL and
// destination path.
func NewDownloadTask(sourceURL, originalURL, path string) *DownloadTask {
	return &DownloadTask{
		ID:          uuid.NewString(),
		SourceURL:   sourceURL,
		OriginalURL: originalURL,
		Path:        path,
		Status:      TaskStatusPending,
	}
}

// DownloadResult is the read-only outcome of a single task.
type DownloadResult struct {
	TaskID    string
	URL       string
	Path      string
	Attempts  int
	Status    TaskStatus
	Skipped   bool // destination already existed, download not attempted
	BytesRead int64
	Err       string
}

// Result folds the task into its result snapshot.
func (t *DownloadTask) Result(bytesRead int64, skipped bool, err error) DownloadResult {
	res := DownloadResult{
		TaskID:    t.ID,
		URL:       t.SourceURL,
		Path:      t.Path,
		Attempts:  t.Attempts,
		Status:    t.Status,
		Skipped:   skipped,
		BytesRead: bytesRead,
	}
	if err != nil {
		res.Err = err.Error()
	}
	return res
}

// Summary aggregates the results of a whole run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Cancelled bool
	Results   []DownloadResult
}

// Partial returns true if at least one task failed terminally or never
// ran because the run was cancelled.
func (s *Summary) Partial() bool {
	return s.Failed > 0 || s.Cancelled
}
