package netpool

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/frankli0324/go-useragent/utils/nettools"
)

type Conn interface {
	io.ReadWriteCloser
	Release()
	Raw() net.Conn
}

type Stats struct {
	Dialed uint64
	Reused uint64
}

type Pool struct {
	connTicket      chan struct{}
	idleTicket      chan *conn
	maxIdleDuration time.Duration

	dialed, reused uint64
}

func NewPool(maxIdle, maxConn uint, maxIdleDuration time.Duration) *Pool {
	return &Pool{
		connTicket:      make(chan struct{}, maxConn),
		idleTicket:      make(chan *conn, maxIdle),
		maxIdleDuration: maxIdleDuration,
	}
}

// Connect returns an idle connection if a usable one exists, or dials a new
// one. it blocks while the pool is at its connection limit, until a
// connection is released or ctx is done.
func (p *Pool) Connect(ctx context.Context, dial func(ctx context.Context) (net.Conn, error)) (Conn, error) {
	select {
	case p.connTicket <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	for {
		select {
		case c := <-p.idleTicket:
			if !p.usable(c) {
				c.Close()
				continue
			}
			atomic.StoreUint32(&c.released, 0)
			atomic.AddUint64(&p.reused, 1)
			return c, nil
		default:
			nc, err := dial(ctx)
			if err != nil {
				<-p.connTicket
				return nil, err
			}
			atomic.AddUint64(&p.dialed, 1)
			return &conn{conn: nc, p: p}, nil
		}
	}
}

func (p *Pool) usable(c *conn) bool {
	if !c.Available() {
		return false
	}
	if p.maxIdleDuration != 0 && time.Since(c.LastIdle) > p.maxIdleDuration {
		return false
	}
	// an idle connection must be silent until we write a request
	if readable, err := nettools.Readable(c.conn); err != nil || readable {
		return false
	}
	return true
}

func (p *Pool) release(c *conn) {
	<-p.connTicket
	if !c.Available() {
		return
	}
	c.conn.SetDeadline(time.Time{})
	c.LastIdle = time.Now()
	select {
	case p.idleTicket <- c:
	default:
		c.Close()
	}
}

func (p *Pool) Stats() Stats {
	return Stats{
		Dialed: atomic.LoadUint64(&p.dialed),
		Reused: atomic.LoadUint64(&p.reused),
	}
}

// Close closes every idle connection. connections in use are closed when
// they are released.
func (p *Pool) Close() {
	for {
		select {
		case c := <-p.idleTicket:
			c.Close()
		default:
			return
		}
	}
}
