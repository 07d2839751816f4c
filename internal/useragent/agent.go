package useragent

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// UserAgent issues calls that retry, follow redirects, keep cookies and
// validate status codes. it is safe for concurrent use.
type UserAgent struct {
	maxRedirects int
	maxRetries   int
	timeout      time.Duration
	validCodes   map[int]bool
	headers      Header
	newBackOff   func() backoff.BackOff

	jar      CookieJar
	pool     Pool
	classify Classifier
	onLimit  RedirectLimitFunc

	log     zerolog.Logger
	metrics *Metrics
	tracer  trace.Tracer
}

// New returns an agent with the default config changed by opts.
func New(opts ...Option) (*UserAgent, error) {
	cfg := DefaultConfig()
	return NewFromConfig(&cfg, opts...)
}

func NewFromConfig(cfg *Config, opts ...Option) (*UserAgent, error) {
	s := &settings{cfg: *cfg, log: zerolog.Nop()}
	s.cfg.ValidStatusCodes = append([]int(nil), cfg.ValidStatusCodes...)
	for _, opt := range opts {
		opt(s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	a := &UserAgent{
		maxRedirects: s.cfg.MaxRedirects,
		maxRetries:   s.cfg.MaxRetries,
		timeout:      s.cfg.Timeout,
		validCodes:   codeSet(s.cfg.ValidStatusCodes),
		headers:      DefaultHeaders(),
		newBackOff:   s.newBackOff,
		jar:          s.jar,
		pool:         s.pool,
		classify:     s.classify,
		onLimit:      s.onLimit,
		log:          s.log,
		metrics:      s.metrics,
	}
	a.headers.Merge(HeaderFromMap(s.cfg.Headers))
	a.headers.Merge(s.headers)
	if a.newBackOff == nil {
		delay := s.cfg.RetryDelay
		a.newBackOff = func() backoff.BackOff { return backoff.NewConstantBackOff(delay) }
	}
	if a.jar == nil && s.cfg.Cookies {
		a.jar = NewCookieJar()
	}
	if a.pool == nil {
		p, err := NewPool(s.cfg.poolConfig())
		if err != nil {
			return nil, err
		}
		a.pool = p
	}
	if a.classify == nil {
		a.classify = DefaultClassifier
	}
	if a.onLimit == nil {
		a.onLimit = func(url string, maxRedirects int, req *Request) error {
			return newRedirectLimit(url, maxRedirects, req)
		}
	}
	if s.tp != nil {
		a.tracer = s.tp.Tracer(tracerName, trace.WithInstrumentationVersion(Version))
	} else {
		a.tracer = defaultTracer()
	}
	return a, nil
}

// Pool returns the pool the agent sends requests through.
func (a *UserAgent) Pool() Pool { return a.pool }

// CookieJar returns the jar of the agent, or nil.
func (a *UserAgent) CookieJar() CookieJar { return a.jar }

type hopOutcome int

const (
	hopReturn   hopOutcome = iota // terminal success
	hopRedirect                   // request re-targeted, keep chasing
	hopRetry                      // recoverable failure, abandon the attempt
	hopFatal                      // abort the call
)

type hopResult struct {
	outcome hopOutcome
	resp    *Response
	content []byte
	err     error
}

// Issue sends a request to rawURL and follows redirects until a reply that
// is not a redirect arrives. failures the classifier deems recoverable start
// a new attempt, up to the retry budget.
func (a *UserAgent) Issue(ctx context.Context, rawURL string, opts ...CallOption) (*Response, error) {
	resp, _, err := a.issue(ctx, a.newCall(rawURL, false, opts))
	return resp, err
}

// IssueContent is like Issue, but returns the decoded body. a body that
// fails to decode is handled like any other failure of the hop, as a
// *DecodeError carrying the url of the call.
func (a *UserAgent) IssueContent(ctx context.Context, rawURL string, opts ...CallOption) ([]byte, error) {
	_, content, err := a.issue(ctx, a.newCall(rawURL, true, opts))
	return content, err
}

func (a *UserAgent) newCall(rawURL string, content bool, opts []CallOption) *call {
	c := &call{url: rawURL, method: "GET", content: content}
	for _, opt := range opts {
		opt(c)
	}
	if c.codes == nil {
		c.codes = a.validCodes
	}
	return c
}

func (a *UserAgent) buildRequest(c *call) (*Request, error) {
	header := a.headers.Clone()
	header.Merge(c.header)
	body, err := encodePayload(withFields(c.payload, c.fields), &header)
	if err != nil {
		return nil, err
	}
	return NewRequest(c.url, c.method, header, body)
}

func (a *UserAgent) issue(ctx context.Context, c *call) (resp *Response, content []byte, err error) {
	ctx, span := a.startSpan(ctx, c)
	defer func() {
		if err != nil {
			a.metrics.failure(failureKind(err))
		}
		endSpan(span, err)
	}()

	req, err := a.buildRequest(c)
	if err != nil {
		return nil, nil, &ConnectionError{URL: c.url, Message: "invalid request", Cause: err}
	}

	bo := a.newBackOff()
	bo.Reset()
	var last error
	for retry := 0; retry < a.maxRetries; retry++ {
		if retry > 0 {
			delay := bo.NextBackOff()
			if delay == backoff.Stop {
				break
			}
			a.metrics.retry()
			if err := sleep(ctx, delay); err != nil {
				return nil, nil, &ConnectionError{URL: c.url, Message: "cancelled", Cause: err, Request: req}
			}
		}
		r := a.attempt(ctx, span, c, req, retry)
		switch r.outcome {
		case hopReturn:
			return r.resp, r.content, nil
		case hopFatal:
			a.log.Debug().Err(r.err).Str("url", c.url).Int("retry", retry).Msg("call failed")
			return nil, nil, r.err
		}
		last = r.err
		a.metrics.failure(failureKind(last))
		a.log.Warn().Err(last).Str("url", c.url).Int("retry", retry).Msg("attempt failed")
	}
	return nil, nil, newRetriesExceeded(c.url, a.maxRetries, last)
}

// attempt runs the redirect chain of one attempt.
func (a *UserAgent) attempt(ctx context.Context, span trace.Span, c *call, req *Request, retry int) hopResult {
	for redirect := 0; redirect < a.maxRedirects; redirect++ {
		r := a.hop(ctx, span, c, req, retry, redirect)
		if r.outcome != hopRedirect {
			return r
		}
		a.metrics.redirect()
	}
	return hopResult{outcome: hopRetry, err: a.onLimit(c.url, a.maxRedirects, req)}
}

func (a *UserAgent) hop(ctx context.Context, span trace.Span, c *call, req *Request, retry, redirect int) hopResult {
	a.log.Debug().Int("retry", retry).Int("redirect", redirect).
		Str("method", req.Method).Str("url", req.FullURL()).Msg("hop")
	if a.jar != nil {
		a.jar.AddCookieHeader(req)
	}

	client, err := a.pool.ClientFor(req.url)
	if err != nil {
		return a.verdict(&ConnectionError{URL: c.url, Message: "no client", Cause: err, Request: req})
	}
	hopCtx, cancel := ctx, context.CancelFunc(func() {})
	if a.timeout > 0 {
		hopCtx, cancel = context.WithTimeout(ctx, a.timeout)
	}
	// a response handed out unread keeps the hop context until it is closed
	handedOut := false
	defer func() {
		if !handedOut {
			cancel()
		}
	}()
	start := time.Now()
	raw, err := client.Request(hopCtx, req.Method, req.url.RequestURI(), req.Payload, req.Header)
	if err != nil {
		a.metrics.hop(req.Method, 0, time.Since(start))
		hopEvent(span, retry, redirect, req.Method, req.FullURL(), 0)
		cerr := &ConnectionError{URL: c.url, Message: "request failed", Cause: err, Request: req}
		if ctx.Err() != nil {
			// the caller gave up, no budget left to spend
			cerr.Cause = ctx.Err()
			return hopResult{outcome: hopFatal, err: cerr}
		}
		return a.verdict(cerr)
	}
	resp := newResponse(raw, req)
	a.metrics.hop(req.Method, resp.StatusCode(), time.Since(start))
	hopEvent(span, retry, redirect, req.Method, req.FullURL(), resp.StatusCode())

	if !c.codes[resp.StatusCode()] {
		// buffered, so the error can show the body and the connection is freed
		resp.Content()
		return a.verdict(newBadStatusCode(c.url, req, resp))
	}
	if a.jar != nil {
		a.jar.ExtractCookies(resp, req)
	}

	if isRedirect(resp.StatusCode()) && resp.Header().Has("Location") {
		location := resp.Header().Get("Location")
		if err := resp.Drain(); err != nil {
			a.log.Debug().Err(err).Str("url", req.FullURL()).Msg("draining redirect body")
		}
		next, err := ResolveRedirect(req.url, location)
		if err != nil {
			return a.verdict(&ConnectionError{URL: c.url, Message: "invalid redirect location " + location, Cause: err, Request: req})
		}
		req.SetURL(next)
		if code := resp.StatusCode(); code == 302 || code == 303 {
			req.Method = "GET"
		}
		req.Payload = nil
		for _, name := range []string{"Content-Length", "Content-Type", "Content-Encoding", "Cookie", "Cookie2"} {
			req.Header.Del(name)
		}
		return hopResult{outcome: hopRedirect}
	}

	if !c.content {
		resp.release = cancel
		handedOut = true
		return hopResult{outcome: hopReturn, resp: resp}
	}
	content, err := resp.Content()
	if err != nil {
		if de, ok := err.(*DecodeError); ok {
			withURL := *de
			withURL.URL = c.url
			err = &withURL
		} else {
			err = &ConnectionError{URL: c.url, Message: "reading body", Cause: err, Request: req, Response: resp}
		}
		return a.verdict(err)
	}
	return hopResult{outcome: hopReturn, resp: resp, content: content}
}

// verdict runs err through the classifier.
func (a *UserAgent) verdict(err error) hopResult {
	recorded, recoverable := a.classify(err)
	if recoverable {
		return hopResult{outcome: hopRetry, err: recorded}
	}
	return hopResult{outcome: hopFatal, err: recorded}
}

func isRedirect(code int) bool {
	switch code {
	case 301, 302, 303, 307:
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
