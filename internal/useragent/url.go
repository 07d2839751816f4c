package useragent

import (
	"net"
	"net/url"
)

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// URL is a parsed absolute or relative URL.
type URL struct {
	u *url.URL
}

func ParseURL(s string) (*URL, error) {
	u, err := url.Parse(s)
	if err != nil {
		return nil, err
	}
	return &URL{u: u}, nil
}

func (u *URL) String() string { return u.u.String() }
func (u *URL) Scheme() string { return u.u.Scheme }

// Hostname returns the host without port and IPv6 brackets.
func (u *URL) Hostname() string { return u.u.Hostname() }

// Netloc returns the authority as written, including the port if any.
func (u *URL) Netloc() string { return u.u.Host }

func (u *URL) HasAuthority() bool { return u.u.Host != "" }

// Port returns the explicit port, or the default port of the scheme.
func (u *URL) Port() string {
	if p := u.u.Port(); p != "" {
		return p
	}
	return defaultPorts[u.u.Scheme]
}

func (u *URL) HostPort() string {
	return net.JoinHostPort(u.Hostname(), u.Port())
}

// RequestURI returns the path and query sent on the request line.
func (u *URL) RequestURI() string {
	return u.u.RequestURI()
}

func (u *URL) clone() *URL {
	c := *u.u
	if c.User != nil {
		user := *c.User
		c.User = &user
	}
	return &URL{u: &c}
}

// ResolveRedirect resolves a location header value against the URL of the
// hop that answered with it. locations without an authority take scheme,
// host and port of current, relative paths resolve against its path.
// scheme-relative locations only take the scheme.
func ResolveRedirect(current *URL, location string) (*URL, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return nil, err
	}
	return &URL{u: current.u.ResolveReference(ref)}, nil
}
