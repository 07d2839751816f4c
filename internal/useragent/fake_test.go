package useragent

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// countingReader counts the Read calls reaching the body.
type countingReader struct {
	r     io.Reader
	reads int
}

func (c *countingReader) Read(p []byte) (int, error) {
	c.reads++
	return c.r.Read(p)
}

type fakeRaw struct {
	code   int
	header Header
	body   *countingReader
	closed bool
}

func newFakeRaw(code int, body string, fields ...string) *fakeRaw {
	var h Header
	for i := 0; i+1 < len(fields); i += 2 {
		h.Add(fields[i], fields[i+1])
	}
	return &fakeRaw{code: code, header: h, body: &countingReader{r: strings.NewReader(body)}}
}

func (r *fakeRaw) StatusCode() int            { return r.code }
func (r *fakeRaw) Header() Header             { return r.header }
func (r *fakeRaw) Read(p []byte) (int, error) { return r.body.Read(p) }
func (r *fakeRaw) Close() error {
	r.closed = true
	return nil
}

type seenRequest struct {
	method string
	url    string
	header Header
	body   []byte

	deadline bool
}

// reply produces the answer to the n-th request, counting from 0.
type reply func(n int, seen seenRequest) (RawResponse, error)

func respond(code int, body string, fields ...string) reply {
	return func(int, seenRequest) (RawResponse, error) {
		return newFakeRaw(code, body, fields...), nil
	}
}

func fail(err error) reply {
	return func(int, seenRequest) (RawResponse, error) { return nil, err }
}

// fakePool answers requests from a script. the last reply repeats once the
// script runs out.
type fakePool struct {
	mu      sync.Mutex
	script  []reply
	seen    []seenRequest
	clients []string
}

func newFakePool(script ...reply) *fakePool {
	return &fakePool{script: script}
}

func (p *fakePool) ClientFor(u *URL) (HostClient, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clients = append(p.clients, u.Scheme()+"://"+u.HostPort())
	return &fakeClient{p: p, base: u.Scheme() + "://" + u.Netloc()}, nil
}

func (p *fakePool) requests() []seenRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]seenRequest(nil), p.seen...)
}

type fakeClient struct {
	p    *fakePool
	base string
}

func (c *fakeClient) Request(ctx context.Context, method, requestURI string, body []byte, header Header) (RawResponse, error) {
	c.p.mu.Lock()
	seen := seenRequest{method: method, url: c.base + requestURI, header: header.Clone(), body: body}
	_, seen.deadline = ctx.Deadline()
	n := len(c.p.seen)
	c.p.seen = append(c.p.seen, seen)
	if len(c.p.script) == 0 {
		c.p.mu.Unlock()
		return nil, errors.New("unexpected request")
	}
	next := c.p.script[len(c.p.script)-1]
	if n < len(c.p.script) {
		next = c.p.script[n]
	}
	c.p.mu.Unlock()
	return next(n, seen)
}

// countingBackOff hands out a fixed delay and counts how often it was asked.
type countingBackOff struct {
	delay time.Duration
	calls int
}

func (b *countingBackOff) NextBackOff() time.Duration {
	b.calls++
	return b.delay
}

func (b *countingBackOff) Reset() {}
