package useragent

// Request is one logical call. it is re-targeted in place while following
// redirects: url, method, payload and header all change between hops.
type Request struct {
	Method  string
	Header  Header
	Payload []byte

	rawURL       string
	url          *URL
	originalHost string
}

func NewRequest(rawURL, method string, header Header, payload []byte) (*Request, error) {
	u, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if method == "" {
		method = "GET"
	}
	r := &Request{Method: method, Header: header, Payload: payload}
	r.SetURL(u)
	r.originalHost = u.Netloc()
	return r, nil
}

// SetURL re-targets the request. the string form is derived from u.
func (r *Request) SetURL(u *URL) {
	r.url = u
	r.rawURL = u.String()
}

// URL returns a copy of the current target.
func (r *Request) URL() *URL { return r.url.clone() }

// FullURL returns the current target as a string.
func (r *Request) FullURL() string { return r.rawURL }

func (r *Request) Host() string   { return r.url.Netloc() }
func (r *Request) Scheme() string { return r.url.Scheme() }

// OriginHost is the netloc the request was created for. it is never updated
// by redirects.
func (r *Request) OriginHost() string { return r.originalHost }

// Unverifiable is always false: every hop either is the call itself or a
// redirect the caller asked to follow.
func (r *Request) Unverifiable() bool { return false }

// HeaderValue returns the first value of name, or def if the header is absent.
func (r *Request) HeaderValue(name, def string) string {
	if !r.Header.Has(name) {
		return def
	}
	return r.Header.Get(name)
}

func (r *Request) HasHeader(name string) bool { return r.Header.Has(name) }

func (r *Request) HeaderItems() []Field { return r.Header.Fields() }

// AddUnredirectedHeader sets a header on the current hop.
func (r *Request) AddUnredirectedHeader(key, value string) {
	r.Header.Set(key, value)
}
