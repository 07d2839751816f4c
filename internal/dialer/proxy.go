package dialer

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/url"

	"golang.org/x/net/proxy"

	"github.com/frankli0324/go-useragent/internal/http"
	"github.com/frankli0324/go-useragent/internal/transport"
)

type ProxyConfig struct {
	TLSConfig      *tls.Config // the [*tls.Config] to use with proxy, if nil, *[CoreDialer.TLSConfig] will be used
	ResolveLocally bool
	ResolveConfig  *ResolveConfig // overrides the resolver config for dialer for proxy
}

func (c *ProxyConfig) Clone() *ProxyConfig {
	if c == nil {
		return nil
	}
	return &ProxyConfig{
		TLSConfig:      c.TLSConfig.Clone(),
		ResolveLocally: c.ResolveLocally,
		ResolveConfig:  c.ResolveConfig.Clone(),
	}
}

var (
	h1Transport = transport.HTTP1{}

	ErrUnsupportedProxy = errors.New("unsupported proxy scheme")
)

func (d *CoreDialer) tryDialProxy(ctx context.Context, r *http.PreparedRequest) (net.Conn, error) {
	if d.GetProxy != nil {
		proxy, perr := d.GetProxy(ctx, r.Request)
		if perr != nil {
			return nil, perr
		}
		if proxy != "" {
			proxyU, perr := url.Parse(proxy)
			if perr != nil {
				return nil, perr
			}
			return d.DialContextOverProxy(ctx, r.U, proxyU)
		}
	}
	return nil, nil
}

func (d *CoreDialer) proxyConfig() *ProxyConfig {
	if d.ProxyConfig == nil {
		return &ProxyConfig{}
	}
	return d.ProxyConfig
}

// remoteAddr returns the address the proxy should connect to, resolved on
// this side when the proxy config asks for it.
func (d *CoreDialer) remoteAddr(ctx context.Context, remote *url.URL) (string, error) {
	addr, port := SplitHostPort(remote.Scheme, remote.Host)
	pc := d.proxyConfig()
	if pc.ResolveLocally {
		dnsCfg := pc.ResolveConfig.Merge(d.ResolveConfig)
		if res, ok := dnsCfg.StaticHosts[addr]; ok {
			addr = res
		} else {
			ips, err := d.lookup(ctx, dnsCfg, addr)
			if err != nil {
				return "", err
			}
			if len(ips) == 0 {
				return "", &net.DNSError{Err: "no such host", Name: addr, IsNotFound: true}
			}
			addr = ips[rand.Intn(len(ips))].String()
		}
	}
	return net.JoinHostPort(addr, port), nil
}

// DialContextOverProxy creates a connection over http/socks proxy.
// This part of logic may be reused when wrapping *[CoreDialer] into
// a new custom [Dialer]
func (d *CoreDialer) DialContextOverProxy(ctx context.Context, remote, proxyU *url.URL) (net.Conn, error) {
	switch proxyU.Scheme {
	case "http", "https":
		return d.dialConnect(ctx, remote, proxyU)
	case "socks5", "socks5h", "socks":
		return d.dialSocks(ctx, remote, proxyU)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedProxy, proxyU.Scheme)
}

func (d *CoreDialer) dialSocks(ctx context.Context, remote, proxyU *url.URL) (net.Conn, error) {
	var auth *proxy.Auth
	if proxyU.User != nil {
		pass, _ := proxyU.User.Password()
		auth = &proxy.Auth{User: proxyU.User.Username(), Password: pass}
	}
	addr, port := SplitHostPort(proxyU.Scheme, proxyU.Host)
	pd, err := proxy.SOCKS5("tcp", net.JoinHostPort(addr, port), auth, &zeroDialer)
	if err != nil {
		return nil, err
	}
	target, err := d.remoteAddr(ctx, remote)
	if err != nil {
		return nil, err
	}
	if cd, ok := pd.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, "tcp", target)
	}
	return pd.Dial("tcp", target)
}

func (d *CoreDialer) dialConnect(ctx context.Context, remote, proxyU *url.URL) (net.Conn, error) {
	addr, port := SplitHostPort(proxyU.Scheme, proxyU.Host)
	conn, err := zeroDialer.DialContext(ctx, "tcp", net.JoinHostPort(addr, port))
	if err != nil {
		return nil, err
	}

	if proxyU.Scheme == "https" {
		tlsCfg := d.proxyConfig().TLSConfig
		if tlsCfg == nil {
			tlsCfg = d.TLSConfig
		}
		tlsCfg = tlsCfg.Clone()
		if tlsCfg == nil {
			tlsCfg = &tls.Config{}
		}
		if tlsCfg.ServerName == "" {
			tlsCfg.ServerName = proxyU.Hostname()
		}
		c := tls.Client(conn, tlsCfg)
		if err := c.HandshakeContext(ctx); err != nil {
			conn.Close()
			return nil, err
		}
		conn = c
	}

	target, err := d.remoteAddr(ctx, remote)
	if err != nil {
		conn.Close()
		return nil, err
	}
	connReq := &http.PreparedRequest{
		Request:       &http.Request{Method: "CONNECT"},
		HeaderHost:    remote.Host,
		U:             &url.URL{Path: target},
		GetBody:       func() (io.ReadCloser, error) { return http.NoBody, nil },
		ContentLength: -1,
	}
	if proxyU.User != nil {
		pass, _ := proxyU.User.Password()
		cred := proxyU.User.Username() + ":" + pass
		connReq.Header = http.Header{
			"Proxy-Authorization": {"Basic " + base64.StdEncoding.EncodeToString([]byte(cred))},
		}
	}
	if err := h1Transport.Write(ctx, conn, connReq); err != nil {
		conn.Close()
		return nil, err
	}
	resp := &http.Response{}
	if err := h1Transport.Read(ctx, conn, connReq, resp); err != nil {
		conn.Close()
		return nil, err
	}
	if resp.StatusCode != 200 {
		s, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		conn.Close()
		return nil, fmt.Errorf("proxy server returned error. status:%d, body:%s", resp.StatusCode, string(s))
	}
	return conn, nil
}
