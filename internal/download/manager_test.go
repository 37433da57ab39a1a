package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagedl/internal/extract"
	httpc "imagedl/internal/http"
	"imagedl/internal/model"
	"imagedl/internal/portal"
	"imagedl/internal/transform"
)

func fastRetry(attempts int) httpc.RetryPolicy {
	return httpc.RetryPolicy{MaxAttempts: attempts, Cooldown: time.Millisecond, Exponent: 1.0}
}

func mustRef(t *testing.T, rawURL string) model.ImageReference {
	t.Helper()
	ref, err := model.NewImageReference(rawURL)
	require.NoError(t, err)
	return ref
}

func newManager(t *testing.T, opts Options) (*Manager, string) {
	t.Helper()
	if opts.OutputDir == "" {
		opts.OutputDir = t.TempDir()
	}
	return NewManager(opts), opts.OutputDir
}

func TestManager_DownloadsAllReferences(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("img:" + r.URL.Path))
	}))
	defer srv.Close()

	m, dir := newManager(t, Options{Retry: fastRetry(3), Workers: 4})
	refs := []model.ImageReference{
		mustRef(t, srv.URL+"/orderfiles/1/a.jpg"),
		mustRef(t, srv.URL+"/orderfiles/1/b.jpg"),
		mustRef(t, srv.URL+"/orderfiles/1/c.png"),
	}

	summary, err := m.Run(context.Background(), refs)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Succeeded)
	assert.Zero(t, summary.Failed)
	assert.False(t, summary.Partial())

	data, err := os.ReadFile(filepath.Join(dir, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "img:/orderfiles/1/a.jpg", string(data))
}

func TestManager_RetriesExactlyMaxAttemptsThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	m, _ := newManager(t, Options{Retry: fastRetry(3), Workers: 1})
	summary, err := m.Run(context.Background(), []model.ImageReference{
		mustRef(t, srv.URL+"/orderfiles/1/a.jpg"),
	})
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	res := summary.Results[0]
	assert.Equal(t, model.TaskStatusFailed, res.Status)
	assert.Equal(t, 3, res.Attempts)
	assert.NotEmpty(t, res.Err)
	assert.EqualValues(t, 3, calls.Load())
	assert.Equal(t, 1, summary.Failed)
}

func TestManager_SucceedsOnSecondAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	m, _ := newManager(t, Options{Retry: fastRetry(3), Workers: 1})
	summary, err := m.Run(context.Background(), []model.ImageReference{
		mustRef(t, srv.URL+"/orderfiles/1/a.jpg"),
	})
	require.NoError(t, err)

	res := summary.Results[0]
	assert.Equal(t, model.TaskStatusSucceeded, res.Status)
	assert.Equal(t, 2, res.Attempts)
	assert.EqualValues(t, 7, res.BytesRead)
}

func TestManager_ClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	m, _ := newManager(t, Options{Retry: fastRetry(3), Workers: 1})
	summary, err := m.Run(context.Background(), []model.ImageReference{
		mustRef(t, srv.URL+"/orderfiles/1/a.jpg"),
	})
	require.NoError(t, err)

	assert.Equal(t, model.TaskStatusFailed, summary.Results[0].Status)
	assert.EqualValues(t, 1, calls.Load(), "4xx must not be retried")
}

func TestManager_FailuresDoNotAbortSiblings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/orderfiles/1/bad.jpg" {
			http.Error(w, "gone", http.StatusNotFound)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	m, dir := newManager(t, Options{Retry: fastRetry(2), Workers: 3})
	summary, err := m.Run(context.Background(), []model.ImageReference{
		mustRef(t, srv.URL+"/orderfiles/1/a.jpg"),
		mustRef(t, srv.URL+"/orderfiles/1/bad.jpg"),
		mustRef(t, srv.URL+"/orderfiles/1/b.jpg"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, summary.Partial())

	assert.FileExists(t, filepath.Join(dir, "a.jpg"))
	assert.FileExists(t, filepath.Join(dir, "b.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "bad.jpg"))
}

func TestManager_CollisionSuffixesFollowDiscoveryOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	m, dir := newManager(t, Options{Retry: fastRetry(1), Workers: 1})
	summary, err := m.Run(context.Background(), []model.ImageReference{
		mustRef(t, srv.URL+"/orderfiles/1/photo.jpg"),
		mustRef(t, srv.URL+"/orderfiles/2/photo.jpg"),
		mustRef(t, srv.URL+"/orderfiles/3/photo.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Succeeded)

	for name, want := range map[string]string{
		"photo.jpg":   "/orderfiles/1/photo.jpg",
		"photo_1.jpg": "/orderfiles/2/photo.jpg",
		"photo_2.jpg": "/orderfiles/3/photo.jpg",
	} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, want, string(data))
	}
}

func TestManager_SkipsExistingFiles(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("stale"), 0644))

	m, _ := newManager(t, Options{Retry: fastRetry(1), Workers: 1, OutputDir: dir})
	summary, err := m.Run(context.Background(), []model.ImageReference{
		mustRef(t, srv.URL+"/orderfiles/1/a.jpg"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, calls.Load(), "existing file must not be fetched")

	data, _ := os.ReadFile(filepath.Join(dir, "a.jpg"))
	assert.Equal(t, "stale", string(data))
}

func TestManager_ProgressIsMonotonicAndComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	var mu sync.Mutex
	var seen []int
	m, _ := newManager(t, Options{
		Retry:   fastRetry(1),
		Workers: 4,
		OnProgress: func(completed, total int) {
			mu.Lock()
			defer mu.Unlock()
			assert.Equal(t, 6, total)
			seen = append(seen, completed)
		},
	})

	var refs []model.ImageReference
	for _, n := range []string{"a", "b", "c", "d", "e", "f"} {
		refs = append(refs, mustRef(t, srv.URL+"/orderfiles/1/"+n+".jpg"))
	}

	_, err := m.Run(context.Background(), refs)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 6, "each task is counted exactly once")
	sort.Ints(seen)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, seen)
}

func TestManager_CancelledContextDispatchesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, dir := newManager(t, Options{Retry: fastRetry(1), Workers: 2})
	summary, err := m.Run(ctx, []model.ImageReference{
		mustRef(t, srv.URL+"/orderfiles/1/a.jpg"),
		mustRef(t, srv.URL+"/orderfiles/1/b.jpg"),
	})
	require.NoError(t, err)

	assert.True(t, summary.Cancelled)
	assert.True(t, summary.Partial())
	assert.Zero(t, summary.Succeeded)
	for _, res := range summary.Results {
		assert.Equal(t, model.TaskStatusPending, res.Status)
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestManager_MissingOutputDir(t *testing.T) {
	m := NewManager(Options{OutputDir: filepath.Join(t.TempDir(), "missing")})
	_, err := m.Run(context.Background(), nil)
	assert.Error(t, err)
}

// TestEndToEnd exercises the full pipeline against a fixture portal:
// listing fetch, link extraction, URL rewriting and concurrent download.
func TestEndToEnd(t *testing.T) {
	const listing = `<html><body>
		<a href="/orderfiles/13011948/living_room.jpg?width=800&height=600&watermark=1">living room</a>
		<a href="/orderfiles/13011948/kitchen.jpg?width=800&height=600&watermark=1">kitchen</a>
		<a href="/orderfiles/13011948/bedroom.jpg?width=800&height=600&watermark=1">bedroom</a>
		<a href="/orderfiles/13011948/floorplan.png?width=1200&height=900&watermark=1">floor plan</a>
		<a href="/orderfiles/13011948/garden.png?width=800&height=600&watermark=1">garden</a>
		<a href="/orderfiles/13011948/living_room.jpg?width=800&height=600&watermark=1">duplicate</a>
		<a href="/orderfiles/13011948/tour.pdf">brochure</a>
		<a href="/help/banner.jpg">outside orderfiles</a>
	</body></html>`

	var mu sync.Mutex
	var fetched []*url.URL
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/backend/general/photos/seller" {
			require.Equal(t, "13011948", r.URL.Query().Get("orderid"))
			w.Write([]byte(listing))
			return
		}
		mu.Lock()
		u := *r.URL
		fetched = append(fetched, &u)
		mu.Unlock()
		w.Write([]byte("img:" + r.URL.Path))
	}))
	defer srv.Close()

	client := httpc.NewClient(httpc.DefaultOptions())
	pc, err := portal.NewClient(srv.URL, client, fastRetry(3), nil)
	require.NoError(t, err)

	html, err := pc.FetchListing(context.Background(), "13011948")
	require.NoError(t, err)

	refs, err := extract.Links(html, pc.Base(), extract.Options{
		Extensions:   []string{".jpg", ".png"},
		PathContains: "/orderfiles/",
	})
	require.NoError(t, err)
	require.Len(t, refs, 5)

	dir := t.TempDir()
	m := NewManager(Options{
		Client: client,
		Retry:  fastRetry(3),
		Transform: transform.Config{
			RemoveWidthHeight: true,
			RemoveWatermark:   true,
		},
		OutputDir: dir,
		Workers:   4,
	})

	summary, err := m.Run(context.Background(), refs)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 5, summary.Succeeded)
	assert.Zero(t, summary.Failed)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"bedroom.jpg", "floorplan.png", "garden.png", "kitchen.jpg", "living_room.jpg"}, names)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, fetched, 5)
	for _, u := range fetched {
		q := u.Query()
		assert.Empty(t, q.Get("width"), "fetch URL %s must not carry width", u)
		assert.Empty(t, q.Get("height"), "fetch URL %s must not carry height", u)
		assert.Empty(t, q.Get("watermark"), "fetch URL %s must not carry watermark", u)
	}
}
