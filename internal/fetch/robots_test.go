package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRobotsServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			atomic.AddInt32(&hits, 1)
			w.WriteHeader(status)
			_, _ = w.Write([]byte(body))
			return
		}
		_, _ = w.Write([]byte("<html></html>"))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestRobotsChecker_Disallow(t *testing.T) {
	server, hits := newRobotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /private\n")
	checker := NewRobotsChecker(DefaultOptions())
	ctx := context.Background()

	allowed, err := checker.IsAllowed(ctx, server.URL+"/private/page")
	require.NoError(t, err)
	assert.False(t, allowed)

	allowed, err = checker.IsAllowed(ctx, server.URL+"/blog/post")
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "robots.txt should be fetched once per host")
}

func TestRobotsChecker_MissingAllowsAll(t *testing.T) {
	server, _ := newRobotsServer(t, http.StatusNotFound, "")
	checker := NewRobotsChecker(nil)

	allowed, err := checker.IsAllowed(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_ServerErrorAllowsAll(t *testing.T) {
	server, _ := newRobotsServer(t, http.StatusInternalServerError, "")
	checker := NewRobotsChecker(nil)

	allowed, err := checker.IsAllowed(context.Background(), server.URL+"/anything")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRobotsChecker_CrawlDelay(t *testing.T) {
	server, _ := newRobotsServer(t, http.StatusOK, "User-agent: *\nCrawl-delay: 3\nDisallow:\n")
	checker := NewRobotsChecker(DefaultOptions())

	assert.Equal(t, 3*time.Second, checker.CrawlDelay(context.Background(), server.URL+"/"))
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	checker := NewRobotsChecker(nil)

	_, err := checker.IsAllowed(context.Background(), "/relative/only")
	assert.Error(t, err)
	assert.Zero(t, checker.CrawlDelay(context.Background(), "::bad"))
}
