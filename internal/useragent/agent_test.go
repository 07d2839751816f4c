package useragent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAgent(t *testing.T, pool Pool, opts ...Option) *UserAgent {
	t.Helper()
	a, err := New(append([]Option{WithPool(pool)}, opts...)...)
	require.NoError(t, err)
	return a
}

func TestIssueFirstAttemptSucceeds(t *testing.T) {
	pool := newFakePool(respond(200, "ok"))
	bo := &countingBackOff{delay: time.Hour}
	a := newAgent(t, pool, WithBackOff(func() backoff.BackOff { return bo }))

	resp, err := a.Issue(context.Background(), "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())
	assert.Zero(t, bo.calls, "no delay before the first attempt")

	reqs := pool.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "GET", reqs[0].method)
	assert.Equal(t, "go-useragent/"+Version, reqs[0].header.Get("user-agent"))
}

func TestIssueFollowsRelativeRedirect(t *testing.T) {
	pool := newFakePool(
		respond(302, "moved", "Location", "/y"),
		respond(200, "final"),
	)
	a := newAgent(t, pool)

	resp, err := a.Issue(context.Background(), "http://a/x",
		WithMethod("POST"),
		WithPayload("data"),
		WithHeader("Content-Type", "text/plain"),
		WithHeader("Content-Encoding", "identity"),
		WithHeader("Cookie", "a=b"),
		WithHeader("Cookie2", "c=d"),
		WithHeader("X-Keep", "1"),
	)
	require.NoError(t, err)
	content, err := resp.Content()
	require.NoError(t, err)
	assert.Equal(t, "final", string(content))

	reqs := pool.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "POST", reqs[0].method)
	assert.Equal(t, []byte("data"), reqs[0].body)
	assert.Equal(t, "4", reqs[0].header.Get("Content-Length"))

	second := reqs[1]
	assert.Equal(t, "http://a/y", second.url)
	assert.Equal(t, "GET", second.method)
	assert.Empty(t, second.body)
	for _, name := range []string{"content-length", "content-type", "content-encoding", "cookie", "cookie2"} {
		assert.False(t, second.header.Has(name), name)
	}
	assert.Equal(t, "1", second.header.Get("X-Keep"))
	assert.Equal(t, "http://a/y", resp.Request().FullURL())
	assert.Equal(t, "a", resp.Request().OriginHost())
}

func TestRedirectMethods(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{301, "PUT"},
		{302, "GET"},
		{303, "GET"},
		{307, "PUT"},
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.code), func(t *testing.T) {
			pool := newFakePool(respond(tt.code, "", "location", "/next"), respond(200, ""))
			a := newAgent(t, pool)
			_, err := a.Issue(context.Background(), "http://a/", WithMethod("PUT"), WithPayload([]byte("x")))
			require.NoError(t, err)
			reqs := pool.requests()
			require.Len(t, reqs, 2)
			assert.Equal(t, tt.want, reqs[1].method)
			assert.Empty(t, reqs[1].body)
		})
	}
}

func TestRedirectResolvesAgainstCurrentHop(t *testing.T) {
	pool := newFakePool(
		respond(301, "", "Location", "http://b:8080/p/q"),
		respond(302, "", "Location", "r?s=1"),
		respond(200, ""),
	)
	a := newAgent(t, pool)
	_, err := a.Issue(context.Background(), "http://a/x")
	require.NoError(t, err)

	reqs := pool.requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "http://b:8080/p/q", reqs[1].url)
	assert.Equal(t, "http://b:8080/p/r?s=1", reqs[2].url)
	assert.Equal(t, []string{"http://a:80", "http://b:8080", "http://b:8080"}, pool.clients)
}

func TestRedirectWithoutLocationIsFinal(t *testing.T) {
	pool := newFakePool(respond(302, "no location"))
	a := newAgent(t, pool)
	resp, err := a.Issue(context.Background(), "http://a/")
	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode())
	assert.Len(t, pool.requests(), 1)
}

func TestRedirectLimitOnEveryAttempt(t *testing.T) {
	pool := newFakePool(respond(302, "", "Location", "/again"))
	a := newAgent(t, pool, WithMaxRedirects(2), WithMaxRetries(3))

	_, err := a.Issue(context.Background(), "http://a/start")
	require.Error(t, err)
	assert.Len(t, pool.requests(), 6, "every attempt spends its whole redirect budget")

	var exceeded *RetriesExceeded
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, 3, exceeded.Retries)
	assert.Equal(t, "http://a/start", exceeded.URL)
	assert.ErrorIs(t, err, ErrRedirectLimit)

	var limit *RetriesExceeded
	require.ErrorAs(t, exceeded.Cause, &limit)
	assert.Equal(t, "redirection limit reached (2)", limit.Message)

	var ce *ConnectionError
	assert.ErrorAs(t, err, &ce)
}

func TestRedirectLimitErrorIsReplaceable(t *testing.T) {
	custom := errors.New("too many hops")
	var seen []string
	pool := newFakePool(respond(302, "", "Location", "/again"))
	a := newAgent(t, pool, WithMaxRedirects(1), WithMaxRetries(2),
		WithRedirectLimitError(func(url string, maxRedirects int, req *Request) error {
			seen = append(seen, req.FullURL())
			assert.Equal(t, 1, maxRedirects)
			return fmt.Errorf("%s: %w", url, custom)
		}))

	_, err := a.Issue(context.Background(), "http://a/start")
	var exceeded *RetriesExceeded
	require.ErrorAs(t, err, &exceeded)
	assert.ErrorIs(t, err, custom)
	assert.NotErrorIs(t, err, ErrRedirectLimit)
	assert.Equal(t, []string{"http://a/again", "http://a/again"}, seen)
	assert.Len(t, pool.requests(), 2)
}

func TestTimeoutsAreRetriedWithDelay(t *testing.T) {
	pool := newFakePool(fail(timeoutError{}), fail(timeoutError{}), respond(200, "ok"))
	a := newAgent(t, pool, WithRetryDelay(20*time.Millisecond))

	start := time.Now()
	content, err := a.IssueContent(context.Background(), "http://a/")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(content))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
	assert.Len(t, pool.requests(), 3)
}

func TestTimeoutsExhaustRetries(t *testing.T) {
	pool := newFakePool(fail(timeoutError{}))
	bo := &countingBackOff{}
	a := newAgent(t, pool, WithMaxRetries(4), WithBackOff(func() backoff.BackOff { return bo }))

	_, err := a.Issue(context.Background(), "http://a/")
	var exceeded *RetriesExceeded
	require.ErrorAs(t, err, &exceeded)
	assert.Equal(t, "retries exceeded (4)", exceeded.Message)
	assert.True(t, IsTimeout(err), "last error is kept as the cause")
	assert.Len(t, pool.requests(), 4)
	assert.Equal(t, 3, bo.calls)
}

func TestFatalFailureAbortsImmediately(t *testing.T) {
	refused := errors.New("connection refused")
	pool := newFakePool(fail(refused))
	a := newAgent(t, pool, WithMaxRetries(5))

	_, err := a.Issue(context.Background(), "http://a/")
	require.Error(t, err)
	assert.Len(t, pool.requests(), 1)
	assert.ErrorIs(t, err, refused)

	var ce *ConnectionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "http://a/", ce.URL)
	assert.NotNil(t, ce.Request)
	var exceeded *RetriesExceeded
	assert.False(t, errors.As(err, &exceeded))
}

func TestBadStatusCodeIsFatalByDefault(t *testing.T) {
	pool := newFakePool(respond(500, "boom"))
	a := newAgent(t, pool)

	_, err := a.Issue(context.Background(), "http://a/")
	var bsc *BadStatusCode
	require.ErrorAs(t, err, &bsc)
	assert.Equal(t, 500, bsc.StatusCode)
	assert.Len(t, pool.requests(), 1)

	body, err := bsc.Response.Content()
	require.NoError(t, err)
	assert.Equal(t, "boom", string(body))

	var ce *ConnectionError
	assert.ErrorAs(t, error(bsc), &ce)
}

func TestResponseCodesPerCall(t *testing.T) {
	pool := newFakePool(respond(404, "missing"))
	a := newAgent(t, pool)
	resp, err := a.Issue(context.Background(), "http://a/", WithResponseCodes(200, 404))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode())
}

func TestClassifierBroadensRetries(t *testing.T) {
	pool := newFakePool(respond(503, ""), respond(503, ""), respond(200, "up"))
	a := newAgent(t, pool, WithClassifier(RetryStatusCodes(503)))

	content, err := a.IssueContent(context.Background(), "http://a/")
	require.NoError(t, err)
	assert.Equal(t, "up", string(content))
	assert.Len(t, pool.requests(), 3)
}

func TestClassifierRecordsReturnedError(t *testing.T) {
	replaced := errors.New("replaced")
	pool := newFakePool(respond(500, ""))
	a := newAgent(t, pool, WithMaxRetries(2), WithClassifier(func(error) (error, bool) {
		return replaced, true
	}))
	_, err := a.Issue(context.Background(), "http://a/")
	assert.ErrorIs(t, err, replaced)
	assert.Len(t, pool.requests(), 2)
}

func TestBackOffStopEndsCall(t *testing.T) {
	pool := newFakePool(fail(timeoutError{}))
	a := newAgent(t, pool, WithMaxRetries(10), WithBackOff(func() backoff.BackOff { return &backoff.StopBackOff{} }))

	_, err := a.Issue(context.Background(), "http://a/")
	var exceeded *RetriesExceeded
	require.ErrorAs(t, err, &exceeded)
	assert.Len(t, pool.requests(), 1)
}

func TestCancelDuringDelay(t *testing.T) {
	pool := newFakePool(fail(timeoutError{}))
	a := newAgent(t, pool, WithRetryDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	_, err := a.Issue(ctx, "http://a/")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, pool.requests(), 1)
}

func TestTimeoutBoundsEachHop(t *testing.T) {
	pool := newFakePool(fail(context.DeadlineExceeded), respond(200, ""))
	a := newAgent(t, pool, WithTimeout(time.Second))
	_, err := a.Issue(context.Background(), "http://a/")
	require.NoError(t, err, "a hop running out of time is retried")

	reqs := pool.requests()
	require.Len(t, reqs, 2)
	assert.True(t, reqs[0].deadline)
	assert.True(t, reqs[1].deadline)

	pool = newFakePool(respond(200, ""))
	_, err = newAgent(t, pool).Issue(context.Background(), "http://a/")
	require.NoError(t, err)
	assert.False(t, pool.requests()[0].deadline)
}

func TestIssueContentDecodes(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("compressed"))
	zw.Close()

	pool := newFakePool(respond(200, buf.String(), "Content-Encoding", "GZIP"))
	a := newAgent(t, pool)
	content, err := a.IssueContent(context.Background(), "http://a/")
	require.NoError(t, err)
	assert.Equal(t, "compressed", string(content))
}

func TestIssueContentDecodeFailureIsClassified(t *testing.T) {
	pool := newFakePool(respond(200, "x", "Content-Encoding", "br"))
	a := newAgent(t, pool)
	_, err := a.IssueContent(context.Background(), "http://a/")
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "br", de.Encoding)
	assert.Equal(t, "http://a/", de.URL)
	assert.Equal(t, "URL http://a/: unknown content encoding: br", err.Error())
	assert.Len(t, pool.requests(), 1)

	// a classifier retrying decode errors spends the budget instead
	pool = newFakePool(respond(200, "x", "Content-Encoding", "br"))
	a = newAgent(t, pool, WithClassifier(func(err error) (error, bool) { return err, true }))
	_, err = a.IssueContent(context.Background(), "http://a/")
	var exceeded *RetriesExceeded
	require.ErrorAs(t, err, &exceeded)
	assert.ErrorAs(t, err, &de)
	assert.Len(t, pool.requests(), 3)
}

func TestCookiesFollowRedirects(t *testing.T) {
	pool := newFakePool(
		respond(302, "", "Set-Cookie", "sid=42; Path=/", "Location", "/home"),
		respond(200, ""),
	)
	a := newAgent(t, pool, WithCookieJar(NewCookieJar()))
	_, err := a.Issue(context.Background(), "http://example.com/login", WithHeader("Cookie", "stale=1"))
	require.NoError(t, err)

	reqs := pool.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "stale=1", reqs[0].header.Get("Cookie"))
	assert.Equal(t, "sid=42", reqs[1].header.Get("Cookie"))
}

func TestInvalidRequestsFailFast(t *testing.T) {
	pool := newFakePool(respond(200, ""))
	a := newAgent(t, pool)

	_, err := a.Issue(context.Background(), "http://a/", WithMethod("POST"),
		WithHeader("Content-Type", "multipart/form-data; boundary=x"), WithPayload("--x--"))
	assert.ErrorIs(t, err, ErrMultipartUnsupported)

	_, err = a.Issue(context.Background(), "http://a/%zz")
	var ce *ConnectionError
	assert.ErrorAs(t, err, &ce)
	assert.Empty(t, pool.requests())
}

func TestConfigValidation(t *testing.T) {
	_, err := New(WithMaxRetries(0))
	assert.Error(t, err)
	_, err = New(WithMaxRedirects(-1))
	assert.Error(t, err)
	_, err = New(WithRetryDelay(-time.Second))
	assert.Error(t, err)
	_, err = New(WithValidStatusCodes(42))
	assert.Error(t, err)
}
