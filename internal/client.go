package internal

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	"github.com/frankli0324/go-useragent/internal/dialer"
	"github.com/frankli0324/go-useragent/internal/http"
	"github.com/frankli0324/go-useragent/internal/transport"
)

type PreparedRequest = http.PreparedRequest

type Handler = func(ctx context.Context, req *PreparedRequest) (*http.Response, error)
type Middleware func(next Handler) Handler

type Client struct {
	middlewares []Middleware
	dialer      http.Dialer
	mu          sync.Mutex
}

var h1 = transport.HTTP1{}

var defaultDialer = &dialer.CoreDialer{}

// Use appends mw to the end of the chain. The last "Use"d mw executes first
func (c *Client) Use(mws ...Middleware) {
	c.middlewares = append(c.middlewares, mws...)
}

// UseDialer replaces the dialer with the result of f, which receives the
// current one.
func (c *Client) UseDialer(f func(http.Dialer) http.Dialer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialer = f(c.getDialer())
}

// UseCoreDialer is like UseDialer, but hands f a private copy of the
// *[dialer.CoreDialer] to configure.
func (c *Client) UseCoreDialer(f func(*dialer.CoreDialer) http.Dialer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cd, ok := c.getDialer().(*dialer.CoreDialer)
	if !ok || cd == defaultDialer {
		cd = defaultDialer.Clone()
	}
	if cd.ConnPool == nil {
		cd.ConnPool = dialer.DefaultPool.NewEmpty()
	}
	c.dialer = f(cd)
}

func (c *Client) getDialer() http.Dialer {
	if c.dialer != nil {
		return c.dialer
	}
	return defaultDialer
}

func (c *Client) dial(ctx context.Context, req *PreparedRequest) (io.ReadWriteCloser, error) {
	c.mu.Lock()
	d := c.getDialer()
	c.mu.Unlock()
	return d.Dial(ctx, req)
}

func (c *Client) CtxDo(ctx context.Context, req *http.Request) (*http.Response, error) {
	pr, err := req.Prepare()
	if err != nil {
		return nil, err
	}
	next := c.roundTrip
	for i := 0; i < len(c.middlewares); i++ {
		next = c.middlewares[i](next)
	}
	return next(ctx, pr)
}

// aLongTimeAgo is a deadline in the past, set on a connection to unblock
// reads and writes in flight.
var aLongTimeAgo = time.Unix(1, 0)

func (c *Client) roundTrip(ctx context.Context, pr *PreparedRequest) (*http.Response, error) {
	conn, err := c.dial(ctx, pr)
	if err != nil {
		return nil, err
	}
	raw := getRawConn(conn)
	if deadline, ok := ctx.Deadline(); ok && raw != nil {
		raw.SetDeadline(deadline)
	}
	stop := func() bool { return true }
	if ctx.Done() != nil && raw != nil {
		stop = context.AfterFunc(ctx, func() { raw.SetDeadline(aLongTimeAgo) })
	}
	resp := &http.Response{}
	if err := h1.RoundTrip(ctx, conn, pr, resp); err != nil {
		stop()
		discard(conn)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	body := &pooledBody{ctx: ctx, r: resp.Body, conn: conn, reuse: !resp.Close, stop: stop}
	if resp.Body == http.NoBody {
		body.finish(true)
	}
	resp.Body = body
	return resp, nil
}

type releaser interface {
	Release()
}

// discard closes conn and gives its pool slot back.
func discard(conn io.ReadWriteCloser) {
	conn.Close()
	if r, ok := conn.(releaser); ok {
		r.Release()
	}
}

// pooledBody gives the connection back to the pool once the body reached
// EOF. closing it before that drops the connection, since the rest of the
// message is still on the wire.
type pooledBody struct {
	ctx   context.Context
	r     io.Reader
	conn  io.ReadWriteCloser
	reuse bool
	stop  func() bool
	once  sync.Once
}

func (b *pooledBody) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if err == io.EOF {
		b.finish(true)
	} else if err != nil {
		b.finish(false)
		if ctxErr := b.ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
	}
	return n, err
}

func (b *pooledBody) finish(eof bool) {
	b.once.Do(func() {
		// a false stop means the deadline was already pulled into the past
		if !b.stop() {
			eof = false
		}
		if eof && b.reuse {
			if r, ok := b.conn.(releaser); ok {
				r.Release()
				return
			}
		}
		discard(b.conn)
	})
}

func (b *pooledBody) Close() error {
	b.finish(false)
	return nil
}

func getRawConn(c io.ReadWriteCloser) net.Conn {
	if conn, ok := c.(interface{ Raw() net.Conn }); ok {
		return conn.Raw()
	}
	return nil
}
