package dialer

import (
	"context"
	"crypto/tls"
	"io"

	"github.com/frankli0324/go-useragent/internal/http"
	"github.com/frankli0324/go-useragent/utils/netpool"
)

// Dialers handle pretty much everything related to the actual connection,
// including setting a proxy for each request, setting resolvers, etc.
type Dialer = http.Dialer

type CoreDialer struct {
	ResolveConfig *ResolveConfig

	TLSConfig *tls.Config // the config to use

	ConnPool    *netpool.PoolGroup
	GetProxy    func(ctx context.Context, r *http.Request) (string, error)
	ProxyConfig *ProxyConfig
}

var _ Dialer = (*CoreDialer)(nil)

func (d *CoreDialer) Clone() *CoreDialer {
	return &CoreDialer{
		ResolveConfig: d.ResolveConfig.Clone(),
		TLSConfig:     d.TLSConfig.Clone(),
		ConnPool:      d.ConnPool.NewEmpty(),
		GetProxy:      d.GetProxy,
		ProxyConfig:   d.ProxyConfig.Clone(),
	}
}

func (d *CoreDialer) Unwrap() Dialer {
	return nil
}

// Dial returns a pooled connection for the target of r. the returned stream
// must be given back with Release, or closed and released when it can't be
// reused.
func (d *CoreDialer) Dial(ctx context.Context, r *http.PreparedRequest) (io.ReadWriteCloser, error) {
	return d.dial(ctx, r)
}

// FixedProxy returns a GetProxy func always answering proxy.
func FixedProxy(proxy string) func(ctx context.Context, r *http.Request) (string, error) {
	return func(context.Context, *http.Request) (string, error) {
		return proxy, nil
	}
}
