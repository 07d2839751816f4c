package useragent

import (
	"net/http"
	"net/http/cookiejar"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// CookieJar stores cookies between hops and calls. implementations must be
// safe for concurrent use, a UserAgent shares its jar across calls.
type CookieJar interface {
	// AddCookieHeader attaches the cookies applicable to req.
	AddCookieHeader(req *Request)
	// ExtractCookies stores the cookies resp sets for req.
	ExtractCookies(resp *Response, req *Request)
}

type memoryJar struct {
	jar *cookiejar.Jar
}

// NewCookieJar returns an in-memory jar honoring the public suffix list.
func NewCookieJar() CookieJar {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &memoryJar{jar: jar}
}

func (j *memoryJar) AddCookieHeader(req *Request) {
	if req.HasHeader("Cookie") {
		return
	}
	cookies := j.jar.Cookies(req.URL().u)
	if len(cookies) == 0 {
		return
	}
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	req.AddUnredirectedHeader("Cookie", strings.Join(pairs, "; "))
}

func (j *memoryJar) ExtractCookies(resp *Response, req *Request) {
	values := resp.Header().Values("Set-Cookie")
	if len(values) == 0 {
		return
	}
	parsed := (&http.Response{Header: http.Header{"Set-Cookie": values}}).Cookies()
	if len(parsed) > 0 {
		j.jar.SetCookies(req.URL().u, parsed)
	}
}
