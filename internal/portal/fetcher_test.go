package portal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpc "imagedl/internal/http"
)

func fastRetry(attempts int) httpc.RetryPolicy {
	return httpc.RetryPolicy{MaxAttempts: attempts, Cooldown: time.Millisecond, Exponent: 1.0}
}

func newTestClient(t *testing.T, baseURL string, attempts int) *Client {
	t.Helper()
	c, err := NewClient(baseURL, httpc.NewClient(httpc.DefaultOptions()), fastRetry(attempts), nil)
	require.NoError(t, err)
	return c
}

func TestListingURL(t *testing.T) {
	c := newTestClient(t, "https://portal.diakrit.com", 1)
	assert.Equal(t,
		"https://portal.diakrit.com/backend/general/photos/seller?orderid=13011948",
		c.ListingURL("13011948"))
}

func TestNewClient_RejectsRelativeBase(t *testing.T) {
	_, err := NewClient("/not/absolute", httpc.NewClient(httpc.DefaultOptions()), fastRetry(1), nil)
	assert.Error(t, err)
}

func TestFetchListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/backend/general/photos/seller", r.URL.Path)
		assert.Equal(t, "13011948", r.URL.Query().Get("orderid"))
		w.Write([]byte("<html>listing</html>"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	body, err := c.FetchListing(context.Background(), "13011948")
	require.NoError(t, err)
	assert.Equal(t, "<html>listing</html>", body)
}

func TestFetchListing_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	body, err := c.FetchListing(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "ok", body)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetchListing_ClientErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such order", http.StatusNotFound)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.FetchListing(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrListingUnavailable)
	assert.EqualValues(t, 1, calls.Load(), "4xx must not be retried")
}

func TestFetchListing_ExhaustedRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 3)
	_, err := c.FetchListing(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrListingUnavailable)
	assert.EqualValues(t, 3, calls.Load())
}
