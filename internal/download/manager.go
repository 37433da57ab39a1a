package download

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	httpc "imagedl/internal/http"
	ioutils "imagedl/internal/io"
	"imagedl/internal/logger"
	"imagedl/internal/model"
	"imagedl/internal/progress"
	"imagedl/internal/transform"
)

// Options configures the download Manager.
type Options struct {
	// Client issues the HTTP requests. Required.
	Client *httpc.Client

	// Retry is the per-task retry policy. Zero value means single
	// attempts.
	Retry httpc.RetryPolicy

	// Transform is applied to every discovered URL before fetching.
	Transform transform.Config

	// OutputDir is the destination directory. It must already exist;
	// creating it is the caller's responsibility.
	OutputDir string

	// Workers bounds the number of concurrent downloads. 1 means
	// sequential execution.
	Workers int

	// OnProgress, when non-nil, is invoked with (completed, total)
	// after every task reaches a terminal status.
	OnProgress progress.Callback

	// Log is optional.
	Log *logger.Logger
}

// Manager drives the concurrent retrieval of all images of a run:
// URL rewriting, destination naming, bounded-concurrency fetching with
// per-task retry, atomic persistence and progress accounting.
type Manager struct {
	opts Options
}

// NewManager creates a Manager. Missing options get defaults.
func NewManager(opts Options) *Manager {
	if opts.Client == nil {
		opts.Client = httpc.NewClient(httpc.DefaultOptions())
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Log == nil {
		opts.Log = logger.New("download")
	}
	return &Manager{opts: opts}
}

// buildTasks converts discovered references into pending tasks: the
// transform config is applied to each URL and destination names are
// allocated up front so collision suffixes follow discovery order.
func (m *Manager) buildTasks(refs []model.ImageReference) []*model.DownloadTask {
	names := ioutils.NewNameAllocator()
	tasks := make([]*model.DownloadTask, 0, len(refs))

	for _, ref := range refs {
		src := transform.Apply(ref.URL, m.opts.Transform)

		name := ioutils.SanitizeFileName(ref.FileName())
		if name == "" || name == "." {
			name = "download" + ref.Extension
		}
		name = names.Claim(name)

		tasks = append(tasks, model.NewDownloadTask(src, ref.URL, filepath.Join(m.opts.OutputDir, name)))
	}
	return tasks
}

// Run downloads all references and returns the aggregated summary.
//
// Task outcomes are independent: a task failing terminally never aborts
// its siblings, and every task ends in the summary. Cancelling ctx
// stops dispatching queued tasks; tasks already in flight finish
// naturally (each attempt is bounded by the client's request timeout,
// not by ctx) and tasks never dispatched are reported Pending with the
// summary marked cancelled.
func (m *Manager) Run(ctx context.Context, refs []model.ImageReference) (*model.Summary, error) {
	if info, err := os.Stat(m.opts.OutputDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("output directory %q is not usable", m.opts.OutputDir)
	}

	tasks := m.buildTasks(refs)
	reporter := progress.NewReporter(len(tasks), m.opts.OnProgress)
	results := make([]model.DownloadResult, len(tasks))

	g := new(errgroup.Group)
	g.SetLimit(m.opts.Workers)

	dispatched := 0
	for i, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		i, task := i, task
		dispatched++
		g.Go(func() error {
			results[i] = m.runTask(task, reporter)
			return nil
		})
	}
	g.Wait()

	// Tasks the stop signal kept off the queue stay Pending.
	for i := dispatched; i < len(tasks); i++ {
		results[i] = tasks[i].Result(0, false, context.Cause(ctx))
	}

	summary := &model.Summary{
		Total:     len(tasks),
		Cancelled: dispatched < len(tasks),
		Results:   results,
	}
	for _, res := range results {
		switch res.Status {
		case model.TaskStatusSucceeded:
			summary.Succeeded++
			if res.Skipped {
				summary.Skipped++
			}
		case model.TaskStatusFailed:
			summary.Failed++
		}
	}

	m.opts.Log.Info().
		Int("total", summary.Total).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Bool("cancelled", summary.Cancelled).
		Msg("run finished")

	return summary, nil
}

// runTask drives one task to a terminal status and reports it done
// exactly once.
func (m *Manager) runTask(task *model.DownloadTask, reporter *progress.Reporter) model.DownloadResult {
	defer reporter.Done()

	task.Status = model.TaskStatusInFlight
	task.StartedAt = time.Now()

	// A file left by a previous run is not downloaded again.
	if _, err := os.Stat(task.Path); err == nil {
		task.Status = model.TaskStatusSucceeded
		task.FinishedAt = time.Now()
		m.opts.Log.Debug().Str("path", task.Path).Msg("already exists, skipping")
		return task.Result(0, true, nil)
	}

	// In-flight tasks finish naturally even when the run is cancelled:
	// attempts run against the client's per-request timeout rather than
	// the run context.
	ctx := context.Background()

	var body []byte
	var err error
	for attempt := 1; attempt <= m.opts.Retry.Attempts(); attempt++ {
		task.Attempts = attempt
		if attempt > 1 {
			m.opts.Retry.Wait(ctx, attempt)
		}

		body, err = m.opts.Client.Get(ctx, task.SourceURL)
		if err == nil || !m.opts.Retry.ShouldRetry(err) {
			break
		}
		m.opts.Log.Warn().Err(err).
			Str("url", task.SourceURL).
			Int("attempt", attempt).
			Msg("download attempt failed")
	}

	if err == nil {
		if werr := ioutils.WriteFileAtomic(task.Path, body); werr != nil {
			err = werr
		}
	}

	task.FinishedAt = time.Now()
	if err != nil {
		task.Status = model.TaskStatusFailed
		m.opts.Log.Error().Err(err).Str("url", task.SourceURL).Msg("download failed")
		return task.Result(0, false, err)
	}

	task.Status = model.TaskStatusSucceeded
	m.opts.Log.Debug().Str("path", task.Path).Int("bytes", len(body)).Msg("downloaded")
	return task.Result(int64(len(body)), false, nil)
}
