package dialer

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"time"

	"github.com/frankli0324/go-useragent/internal/http"
	"github.com/frankli0324/go-useragent/utils/netpool"
)

var DefaultPool = netpool.NewGroup(100, 80, 90*time.Second)

var schemes = map[string]string{
	"http": "80", "https": "443", "socks": "1080", "socks5": "1080", "socks5h": "1080",
}

var zeroDialer net.Dialer
var customDnsDialer = net.Dialer{
	Resolver: &customServerResolver,
}

// PoolKey is the key connections are pooled under: scheme, host and port.
func PoolKey(scheme, hostport string) string {
	return scheme + "://" + hostport
}

// SplitHostPort returns the host and port of u, filling in the default port
// of the scheme.
func SplitHostPort(scheme, host string) (string, string) {
	addr, port := host, schemes[scheme]
	if add, prt, err := net.SplitHostPort(host); err == nil {
		addr, port = add, prt
	}
	return addr, port
}

func (d *CoreDialer) dial(ctx context.Context, r *http.PreparedRequest) (io.ReadWriteCloser, error) {
	addr, port := SplitHostPort(r.U.Scheme, r.U.Host)
	hp := net.JoinHostPort(addr, port)
	pool := d.ConnPool
	if pool == nil {
		pool = DefaultPool
	}
	return pool.Connect(ctx, PoolKey(r.U.Scheme, hp), func(ctx context.Context) (conn net.Conn, err error) {
		conn, err = d.tryDialProxy(ctx, r)
		if err != nil {
			return nil, err
		}
		if conn == nil {
			// as of now net.Dialer could handle current DNS configurations
			network, dialer, dialctx, dst := "tcp", &zeroDialer, ctx, hp

			rc := d.ResolveConfig
			if rc == nil {
				rc = &ResolveConfig{}
			}
			if rc.Network == "ip4" {
				network = "tcp4"
			} else if rc.Network == "ip6" {
				network = "tcp6"
			}
			if static, ok := rc.StaticHosts[addr]; ok {
				dst = net.JoinHostPort(static, port)
			}
			if dns := rc.CustomDNSServer; dns != "" {
				dialctx = dnsServerCtx{dialctx, dns}
				dialer = &customDnsDialer
			}

			conn, err = dialer.DialContext(dialctx, network, dst)
		}
		if err != nil {
			return nil, err
		}
		if r.U.Scheme == "https" {
			config := d.TLSConfig.Clone()
			if config == nil {
				config = &tls.Config{}
			}
			if config.ServerName == "" {
				config.ServerName = r.U.Hostname()
			}
			c := tls.Client(conn, config)
			if err := c.HandshakeContext(ctx); err != nil {
				conn.Close()
				return nil, err
			}
			conn = c
		}
		return conn, nil
	})
}
