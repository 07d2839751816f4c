package useragent

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/frankli0324/go-useragent/internal"
	"github.com/frankli0324/go-useragent/internal/dialer"
	"github.com/frankli0324/go-useragent/internal/http"
	"github.com/frankli0324/go-useragent/utils/netpool"
)

// Pool hands out clients bound to the scheme, host and port of a URL.
type Pool interface {
	ClientFor(u *URL) (HostClient, error)
}

type HostClient interface {
	Request(ctx context.Context, method, requestURI string, body []byte, header Header) (RawResponse, error)
}

// RawResponse is a reply as the transport read it. the body is not decoded.
type RawResponse interface {
	StatusCode() int
	Header() Header
	io.ReadCloser
}

type PoolConfig struct {
	MaxConnsPerHost uint
	MaxIdlePerHost  uint
	MaxIdleTime     time.Duration

	// Proxy is an http, https or socks5 proxy url, used for every request.
	Proxy         string
	TLSConfig     *tls.Config
	ResolveConfig *dialer.ResolveConfig

	// RateLimit is the number of requests per second allowed per host, zero
	// means unlimited.
	RateLimit float64
	RateBurst int

	// RequestIDHeader names a header stamped with a fresh uuid on requests
	// not carrying one.
	RequestIDHeader string
}

// ClientPool is the default Pool, sending HTTP/1.1 requests over pooled
// connections.
type ClientPool struct {
	client *internal.Client
	conns  *netpool.PoolGroup
}

var _ Pool = (*ClientPool)(nil)

func NewPool(cfg PoolConfig) (*ClientPool, error) {
	if cfg.MaxConnsPerHost == 0 {
		cfg.MaxConnsPerHost = 100
	}
	if cfg.MaxIdlePerHost == 0 {
		cfg.MaxIdlePerHost = 80
	}
	if cfg.MaxIdleTime == 0 {
		cfg.MaxIdleTime = 90 * time.Second
	}
	if cfg.Proxy != "" {
		pu, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy: %w", err)
		}
		switch pu.Scheme {
		case "http", "https", "socks", "socks5", "socks5h":
		default:
			return nil, fmt.Errorf("%w: %s", dialer.ErrUnsupportedProxy, pu.Scheme)
		}
	}

	p := &ClientPool{
		client: &internal.Client{},
		conns:  netpool.NewGroup(cfg.MaxConnsPerHost, cfg.MaxIdlePerHost, cfg.MaxIdleTime),
	}
	p.client.UseCoreDialer(func(d *dialer.CoreDialer) http.Dialer {
		d.ConnPool = p.conns
		d.TLSConfig = cfg.TLSConfig
		d.ResolveConfig = cfg.ResolveConfig
		if cfg.Proxy != "" {
			d.GetProxy = dialer.FixedProxy(cfg.Proxy)
		}
		return d
	})
	if cfg.RequestIDHeader != "" {
		p.client.Use(RequestID(cfg.RequestIDHeader))
	}
	if cfg.RateLimit > 0 {
		p.client.Use(RateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	return p, nil
}

// Use adds middlewares to the client behind the pool.
func (p *ClientPool) Use(mws ...internal.Middleware) {
	p.client.Use(mws...)
}

func (p *ClientPool) ClientFor(u *URL) (HostClient, error) {
	switch u.Scheme() {
	case "http", "https":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme())
	}
	if !u.HasAuthority() {
		return nil, fmt.Errorf("missing host in %q", u.String())
	}
	return &hostClient{
		client: p.client,
		base:   u.Scheme() + "://" + u.Netloc(),
	}, nil
}

// Stats returns the connection counters of the pool serving u.
func (p *ClientPool) Stats(u *URL) netpool.Stats {
	return p.conns.Stats(dialer.PoolKey(u.Scheme(), u.HostPort()))
}

// Close closes the idle connections of the pool.
func (p *ClientPool) Close() {
	p.conns.Close()
}

type hostClient struct {
	client *internal.Client
	base   string
}

func (c *hostClient) Request(ctx context.Context, method, requestURI string, body []byte, header Header) (RawResponse, error) {
	h := http.Header{}
	for _, f := range header.Fields() {
		h[f.Name] = append(h[f.Name], f.Value)
	}
	req := &http.Request{Method: method, URL: c.base + requestURI, Header: h}
	if len(body) > 0 {
		req.Body = body
	}
	resp, err := c.client.CtxDo(ctx, req)
	if err != nil {
		return nil, err
	}
	return &rawResponse{resp: resp}, nil
}

type rawResponse struct {
	resp *http.Response
}

func (r *rawResponse) StatusCode() int { return r.resp.StatusCode }

func (r *rawResponse) Header() Header {
	var h Header
	for _, f := range r.resp.Fields {
		h.Add(f.Name, f.Value)
	}
	return h
}

func (r *rawResponse) Read(p []byte) (int, error) { return r.resp.Body.Read(p) }
func (r *rawResponse) Close() error               { return r.resp.Body.Close() }
