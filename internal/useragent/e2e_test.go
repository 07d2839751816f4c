package useragent

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s3cr3t", Path: "/"})
		http.Redirect(w, r, "/home", http.StatusFound)
	})
	mux.HandleFunc("/home", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("session")
		if err != nil || c.Value != "s3cr3t" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		zw.Write([]byte("welcome " + r.Method))
		zw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Write(buf.Bytes())
	})
	mux.HandleFunc("/echo-id", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, r.Header.Get("X-Request-Id"))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/hang", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("partial") {
			w.Header().Set("Content-Length", "100")
			io.WriteString(w, "head")
			w.(http.Flusher).Flush()
		}
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	})
	mux.HandleFunc("/big", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, strings.Repeat("0123456789", 5000))
	})
	mux.HandleFunc("/chunked", func(w http.ResponseWriter, r *http.Request) {
		for i := 0; i < 3; i++ {
			io.WriteString(w, "part")
			w.(http.Flusher).Flush()
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestEndToEndRedirectWithCookies(t *testing.T) {
	srv := newServer(t)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	a, err := New(
		WithCookieJar(NewCookieJar()),
		WithMetrics(metrics),
		WithTracerProvider(tp),
	)
	require.NoError(t, err)

	content, err := a.IssueContent(context.Background(), srv.URL+"/login", WithMethod("POST"), WithFields(map[string]string{"user": "u"}))
	require.NoError(t, err)
	assert.Equal(t, "welcome GET", string(content))

	// the redirect body was drained, so both hops share one connection
	u, _ := ParseURL(srv.URL)
	stats := a.Pool().(*ClientPool).Stats(u)
	assert.EqualValues(t, 1, stats.Dialed)
	assert.EqualValues(t, 1, stats.Reused)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.redirects))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.hops.WithLabelValues("POST", "302")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.hops.WithLabelValues("GET", "200")))
	assert.Equal(t, 2, testutil.CollectAndCount(metrics.hops))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "useragent.issue", spans[0].Name())
	require.Len(t, spans[0].Events(), 2)
	assert.Equal(t, "hop", spans[0].Events()[0].Name)
}

func TestEndToEndTimeoutIsRetried(t *testing.T) {
	srv := newServer(t)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	a, err := New(WithTimeout(50*time.Millisecond), WithMaxRetries(2), WithMetrics(metrics))
	require.NoError(t, err)

	_, err = a.Issue(context.Background(), srv.URL+"/slow")
	var exceeded *RetriesExceeded
	require.ErrorAs(t, err, &exceeded)
	assert.True(t, IsTimeout(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.retries))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.failures.WithLabelValues("timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failures.WithLabelValues("retries_exceeded")))
}

func TestEndToEndCancelUnblocksCall(t *testing.T) {
	srv := newServer(t)
	a, err := New(WithMaxRetries(3))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	start := time.Now()
	_, err = a.Issue(ctx, srv.URL+"/hang")
	assert.ErrorIs(t, err, context.Canceled)
	var ce *ConnectionError
	assert.ErrorAs(t, err, &ce)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEndToEndCancelUnblocksBodyRead(t *testing.T) {
	srv := newServer(t)
	a, err := New()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	resp, err := a.Issue(ctx, srv.URL+"/hang?partial=1")
	require.NoError(t, err)
	defer resp.Close()

	time.AfterFunc(100*time.Millisecond, cancel)
	start := time.Now()
	_, err = io.ReadAll(resp)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestEndToEndTimeoutLeavesBodyReadable(t *testing.T) {
	srv := newServer(t)
	a, err := New(WithTimeout(5 * time.Second))
	require.NoError(t, err)

	resp, err := a.Issue(context.Background(), srv.URL+"/big")
	require.NoError(t, err)
	defer resp.Close()
	body, err := io.ReadAll(resp)
	require.NoError(t, err)
	assert.Len(t, body, 50000)
}

func TestEndToEndBadStatus(t *testing.T) {
	srv := newServer(t)
	a, err := New()
	require.NoError(t, err)
	_, err = a.Issue(context.Background(), srv.URL+"/home")
	var bsc *BadStatusCode
	require.ErrorAs(t, err, &bsc)
	assert.Equal(t, http.StatusForbidden, bsc.StatusCode)
	assert.Contains(t, err.Error(), "URL "+srv.URL+"/home: bad status code 403")
}

func TestEndToEndPoolMiddlewares(t *testing.T) {
	srv := newServer(t)
	pool, err := NewPool(PoolConfig{RequestIDHeader: "X-Request-Id", RateLimit: 1000, RateBurst: 10})
	require.NoError(t, err)
	defer pool.Close()
	a, err := New(WithPool(pool))
	require.NoError(t, err)

	content, err := a.IssueContent(context.Background(), srv.URL+"/echo-id")
	require.NoError(t, err)
	_, err = uuid.Parse(string(content))
	assert.NoError(t, err, "request id is a uuid: %q", content)

	content, err = a.IssueContent(context.Background(), srv.URL+"/echo-id", WithHeader("x-request-id", "mine"))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(content))

	content, err = a.IssueContent(context.Background(), srv.URL+"/chunked")
	require.NoError(t, err)
	assert.Equal(t, "partpartpart", string(content))
}

func TestEndToEndDownloadFile(t *testing.T) {
	srv := newServer(t)
	a, err := New()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "big.txt")
	resp, err := a.DownloadFile(context.Background(), srv.URL+"/big", path)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("0123456789", 5000), string(got))

	_, err = a.DownloadFile(context.Background(), srv.URL+"/home", filepath.Join(t.TempDir(), "denied"))
	assert.Error(t, err)
}

type chunkRecorder struct {
	sizes []int
	bytes.Buffer
}

func (c *chunkRecorder) Write(p []byte) (int, error) {
	c.sizes = append(c.sizes, len(p))
	return c.Buffer.Write(p)
}

func TestDownloadChunks(t *testing.T) {
	body := strings.Repeat("x", 3*DownloadChunkSize+10)
	pool := newFakePool(respond(200, body, "Content-Encoding", "gzip"))
	a := newAgent(t, pool)

	var w chunkRecorder
	_, err := a.Download(context.Background(), "http://a/file", &w)
	require.NoError(t, err)
	assert.Equal(t, body, w.String(), "downloads are not decoded")
	for _, n := range w.sizes {
		assert.LessOrEqual(t, n, DownloadChunkSize)
	}
}
