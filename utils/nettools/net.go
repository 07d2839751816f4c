package nettools

import (
	"net"
	"syscall"
)

type Mode int

const (
	ModeEpoll Mode = iota
	ModePoll
	ModeSelect
)

var (
	supported = map[Mode]func(fd int) (bool, error){}
	picked    func(fd int) (bool, error)
)

// Readable reports whether reading from c would not block right now, meaning
// either data or EOF is pending. for an idle keep-alive connection both mean
// the connection can't carry a new request: the peer closed it or sent bytes
// nobody asked for.
//
// connections that don't expose a file descriptor (pipes, wrapped streams)
// are reported as not readable, as there is no way to tell.
func Readable(c net.Conn) (bool, error) {
	rc := connToFD(c)
	if rc == nil || picked == nil {
		return false, nil
	}
	var (
		readable bool
		perr     error
	)
	// It's annoying that golang docs didn't specify whether the
	// control action will be executed if error occurrs
	// however according to the source code errors would only
	// happen before the control action, here's an example on *[net.conn]:
	//
	//  if err := fd.incref(); err != nil {
	//  	return err
	//  }
	//  defer fd.decref()
	//  f(uintptr(fd.Sysfd))
	//  return nil
	if err := rc.Control(func(fd uintptr) {
		readable, perr = picked(int(fd))
	}); err != nil {
		return false, err
	}
	return readable, perr
}

func init() {
	for _, mode := range []Mode{ModeEpoll, ModePoll, ModeSelect} {
		if supported[mode] != nil {
			picked = supported[mode]
			break
		}
	}
}

func connToFD(raw net.Conn) syscall.RawConn {
	if t, ok := raw.(interface{ NetConn() net.Conn }); ok {
		// is *tls.Conn
		raw = t.NetConn()
	}
	if c, ok := raw.(syscall.Conn); ok {
		if c, err := c.SyscallConn(); err == nil {
			return c
		}
	}
	return nil
}
