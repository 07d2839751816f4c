package netpool

import (
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

type conn struct {
	conn     net.Conn
	p        *Pool
	IsClosed uint32
	LastIdle time.Time

	released uint32
}

func (c *conn) Available() bool {
	return atomic.LoadUint32(&c.IsClosed) == 0
}

func (c *conn) Raw() net.Conn {
	return c.conn
}

func (c *conn) Write(p []byte) (n int, err error) {
	n, err = c.conn.Write(p)
	if err != nil {
		if err != io.EOF {
			log.Debug().Err(err).Str("remote", remoteAddr(c.conn)).Msg("netpool: error on write")
		}
		c.Close()
	}
	return
}

func (c *conn) Read(p []byte) (n int, err error) {
	nb, err := c.conn.Read(p)
	if err != nil {
		if err != io.EOF {
			log.Debug().Err(err).Str("remote", remoteAddr(c.conn)).Msg("netpool: error on read")
		}
		c.Close()
	}
	return nb, err
}

// Close closes the underlying connection. the pool slot it occupies is only
// given back by [conn.Release].
func (c *conn) Close() error {
	if !atomic.CompareAndSwapUint32(&c.IsClosed, 0, 1) {
		return nil
	}
	return c.conn.Close()
}

// Release hands the connection back to its pool. it's safe to call more than
// once, only the first call has effect.
func (c *conn) Release() {
	if atomic.CompareAndSwapUint32(&c.released, 0, 1) {
		c.p.release(c)
	}
}

func remoteAddr(c net.Conn) string {
	if c == nil || c.RemoteAddr() == nil {
		return ""
	}
	return c.RemoteAddr().String()
}
