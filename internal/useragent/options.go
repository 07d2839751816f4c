package useragent

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type settings struct {
	cfg        Config
	headers    Header
	newBackOff func() backoff.BackOff
	jar        CookieJar
	pool       Pool
	classify   Classifier
	onLimit    RedirectLimitFunc
	log        zerolog.Logger
	metrics    *Metrics
	tp         trace.TracerProvider
}

type Option func(*settings)

func WithMaxRedirects(n int) Option {
	return func(s *settings) { s.cfg.MaxRedirects = n }
}

func WithMaxRetries(n int) Option {
	return func(s *settings) { s.cfg.MaxRetries = n }
}

// WithRetryDelay sets a constant delay between attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(s *settings) {
		s.cfg.RetryDelay = d
		s.newBackOff = nil
	}
}

// WithBackOff sets the schedule of delays between attempts. newBackOff is
// called once per Issue, a schedule answering backoff.Stop ends the call.
func WithBackOff(newBackOff func() backoff.BackOff) Option {
	return func(s *settings) { s.newBackOff = newBackOff }
}

// WithTimeout bounds every hop, from dialing until the body is read.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) { s.cfg.Timeout = d }
}

func WithValidStatusCodes(codes ...int) Option {
	return func(s *settings) { s.cfg.ValidStatusCodes = append([]int(nil), codes...) }
}

// WithDefaultHeaders adds headers sent with every call, replacing defaults
// of the same name.
func WithDefaultHeaders(h Header) Option {
	return func(s *settings) { s.headers.Merge(h) }
}

// WithCookieJar shares jar with the agent. the jar is not owned by it.
func WithCookieJar(jar CookieJar) Option {
	return func(s *settings) { s.jar = jar }
}

func WithPool(p Pool) Option {
	return func(s *settings) { s.pool = p }
}

func WithClassifier(c Classifier) Option {
	return func(s *settings) { s.classify = c }
}

// RedirectLimitFunc builds the error recorded for an attempt that ran out
// of redirects. url is the url of the call, req the hop that redirected
// last.
type RedirectLimitFunc func(url string, maxRedirects int, req *Request) error

// WithRedirectLimitError replaces the error recorded when an attempt runs
// out of redirects. the call still moves on to the next attempt.
func WithRedirectLimitError(f RedirectLimitFunc) Option {
	return func(s *settings) { s.onLimit = f }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(s *settings) { s.metrics = m }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *settings) { s.tp = tp }
}

type call struct {
	url     string
	method  string
	header  Header
	payload any
	fields  map[string]string
	codes   map[int]bool
	content bool
}

type CallOption func(*call)

func WithMethod(method string) CallOption {
	return func(c *call) { c.method = method }
}

// WithHeaders adds h to the call, winning over default headers.
func WithHeaders(h Header) CallOption {
	return func(c *call) { c.header.Merge(h) }
}

func WithHeader(name, value string) CallOption {
	return func(c *call) { c.header.Set(name, value) }
}

// WithPayload sets the request body. mappings (url.Values, map[string]string,
// map[string][]string, map[string]any) are form encoded unless a
// content-type is set, anything else is sent as its string form.
func WithPayload(payload any) CallOption {
	return func(c *call) { c.payload = payload }
}

// WithFields adds form fields to the payload.
func WithFields(fields map[string]string) CallOption {
	return func(c *call) {
		if c.fields == nil {
			c.fields = map[string]string{}
		}
		for k, v := range fields {
			c.fields[k] = v
		}
	}
}

// WithResponseCodes replaces the accepted status codes for this call.
func WithResponseCodes(codes ...int) CallOption {
	return func(c *call) { c.codes = codeSet(codes) }
}

func codeSet(codes []int) map[int]bool {
	set := make(map[int]bool, len(codes))
	for _, c := range codes {
		set[c] = true
	}
	return set
}
