package dialer

import (
	"github.com/frankli0324/go-useragent/internal/dialer"
)

// Dialers are responsible for creating underlying streams that http requests could
// be written to and responses could be read from. for example, opening a raw TCP
// connection for HTTP/1.1 requests.
//
// A Dialer MUST NOT hold active connection states, so that it can be swapped
// out from a client without pain. It SHOULD hold the connection related
// configs like [ProxyConfig] or *[crypto/tls.Config].
type Dialer = dialer.Dialer

// CoreDialer is the default implementation of the [Dialer] interface. every
// pool made with NewPool dials through its own CoreDialer.
type CoreDialer = dialer.CoreDialer

type ProxyConfig = dialer.ProxyConfig

// we need a dedicated resolver for two scenarios:
//
//  1. Resolve remote address locally in proxied requests
//  2. to customize the DNS server used for resolving hostname
//
// the standard library only follows the system configuration
// (e.g. /etc/resolv.conf) for DNS servers, leaving [net.Resolver.Dial]
// with a Go Resolver as the only hook to change it.
type ResolveConfig = dialer.ResolveConfig

var (
	ErrUnsupportedProxy = dialer.ErrUnsupportedProxy
	FixedProxy          = dialer.FixedProxy
)
