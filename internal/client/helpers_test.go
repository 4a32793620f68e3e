package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/sitecontent/internal/devserver"
	"github.com/fivetwenty-io/sitecontent/pkg/content"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	testCredential = "eu_site42_s3cr3t"
	testSite       = "site42"
)

const blogDocument = `{
	"pages": [
		{"_path": "/", "title": "Home"},
		{"_path": "/blog/a", "_slug": "a", "title": "A", "published": true},
		{"_path": "/blog/b", "_slug": "b", "title": "B", "published": false},
		{"_path": "/blogging", "title": "Blogging"}
	],
	"entries": {
		"footer": {"text": "bye"},
		"authors": [{"name": "Ann"}, {"name": "Bo"}],
		"team-members": [{"name": "Cy"}]
	},
	"images": {
		"hero": {"url": "https://cdn.example.com/hero.png", "alt": "Hero"}
	},
	"options": {
		"colors": [{"label": "Red", "value": "red"}, {"label": "Blue", "value": "blue"}]
	},
	"config": {"title": "Site"}
}`

var errAdapterDown = errors.New("adapter down")

// harness is a local content server plus a counter of calls made to it.
type harness struct {
	server    *httptest.Server
	tag       string
	collector *content.MetricsCollector
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dev := devserver.New()

	tag, err := dev.AddSite(testSite, []byte(blogDocument), "preview")
	require.NoError(t, err)

	server := httptest.NewServer(dev.Handler())
	t.Cleanup(server.Close)

	return &harness{
		server:    server,
		tag:       tag,
		collector: content.NewMetricsCollector(),
	}
}

// newHarnessWith is newHarness with wrap placed in front of the content
// server's handler.
func newHarnessWith(t *testing.T, wrap func(next http.Handler) http.Handler) *harness {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dev := devserver.New()

	tag, err := dev.AddSite(testSite, []byte(blogDocument), "preview")
	require.NoError(t, err)

	server := httptest.NewServer(wrap(dev.Handler()))
	t.Cleanup(server.Close)

	return &harness{
		server:    server,
		tag:       tag,
		collector: content.NewMetricsCollector(),
	}
}

// config returns a client configuration pointed at the harness.
func (h *harness) config() *content.Config {
	return &content.Config{
		Token:        testCredential,
		BaseURL:      h.server.URL,
		RetryMax:     -1,
		Interceptors: content.NewInterceptorChain().WithMetrics(h.collector),
	}
}

// contentCalls counts GET requests.
func (h *harness) contentCalls() int64 {
	return h.collector.TotalRequests() - h.resolveCalls()
}

// resolveCalls counts POST resolve requests for every alias.
func (h *harness) resolveCalls() int64 {
	var total int64

	for _, alias := range []string{"latest", "preview", "nope"} {
		if metrics := h.collector.GetMetrics("POST /" + testSite + "/" + alias + "/resolve"); metrics != nil {
			total += metrics.Requests
		}
	}

	return total
}

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// failingCache fails every operation.
type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, error) { return nil, errAdapterDown }
func (failingCache) Set(context.Context, string, []byte) error   { return errAdapterDown }

// countingLogger records log levels.
type countingLogger struct {
	mu     sync.Mutex
	levels []string
}

func (l *countingLogger) record(level string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.levels = append(l.levels, level)
}

func (l *countingLogger) count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0

	for _, recorded := range l.levels {
		if recorded == level {
			n++
		}
	}

	return n
}

func (l *countingLogger) Debug(string, map[string]interface{}) { l.record("debug") }
func (l *countingLogger) Info(string, map[string]interface{})  { l.record("info") }
func (l *countingLogger) Warn(string, map[string]interface{})  { l.record("warn") }
func (l *countingLogger) Error(string, map[string]interface{}) { l.record("error") }

func formatMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
