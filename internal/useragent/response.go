package useragent

import (
	"io"
	"strconv"
	"strings"
	"sync"
)

type bodyMode int

const (
	bodyUntouched bodyMode = iota
	bodyRaw
	bodyContent
	bodyStream
)

// Response wraps the reply of one hop. the body can be consumed exactly one
// way: raw with Read, decoded and cached with Content, or decoded on the fly
// with Stream.
type Response struct {
	raw     RawResponse
	req     *Request
	header  Header
	release func()

	mu         sync.Mutex
	mode       bodyMode
	content    []byte
	contentErr error
}

func newResponse(raw RawResponse, req *Request) *Response {
	return &Response{raw: raw, req: req, header: raw.Header()}
}

func (r *Response) StatusCode() int { return r.raw.StatusCode() }

// Status returns the status code as a decimal string.
func (r *Response) Status() string { return strconv.Itoa(r.raw.StatusCode()) }

// Header returns the reply header. it is owned by the response.
func (r *Response) Header() Header { return r.header }

// Request returns the request of the hop that produced this reply.
func (r *Response) Request() *Request { return r.req }

func (r *Response) claim(mode bodyMode) bool {
	if r.mode == bodyUntouched || r.mode == mode {
		r.mode = mode
		return true
	}
	return false
}

// Read reads the body as it came over the wire, without decoding.
func (r *Response) Read(p []byte) (int, error) {
	r.mu.Lock()
	ok := r.claim(bodyRaw)
	r.mu.Unlock()
	if !ok {
		return 0, ErrBodyConsumed
	}
	return r.raw.Read(p)
}

// Content reads and decodes the whole body. the result, error included, is
// cached: only the first call touches the stream.
func (r *Response) Content() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode == bodyContent {
		return r.content, r.contentErr
	}
	if !r.claim(bodyContent) {
		return nil, ErrBodyConsumed
	}
	r.content, r.contentErr = decodeAll(contentEncoding(r.header), r.raw)
	r.closeRaw()
	return r.content, r.contentErr
}

// Length returns the declared content-length, or the size of the decoded
// content when the header is absent or not a number.
func (r *Response) Length() (int, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(r.header.Get("Content-Length"))); err == nil {
		return n, nil
	}
	content, err := r.Content()
	return len(content), err
}

// Stream returns the decoded body as a reader, without buffering it. the
// caller must close it.
func (r *Response) Stream() (io.ReadCloser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mode != bodyUntouched {
		return nil, ErrBodyConsumed
	}
	r.mode = bodyStream
	stream, err := decodeStream(contentEncoding(r.header), rawBody{r})
	if err != nil {
		r.closeRaw()
		return nil, err
	}
	return stream, nil
}

// Drain reads whatever is left of the body and closes it, which hands the
// connection back to the pool.
func (r *Response) Drain() error {
	_, err := io.Copy(io.Discard, r.raw)
	if cerr := r.closeRaw(); err == nil {
		err = cerr
	}
	return err
}

func (r *Response) Close() error {
	return r.closeRaw()
}

// rawBody reads the body of r without claiming a mode, and closes it the
// way Close does.
type rawBody struct{ r *Response }

func (b rawBody) Read(p []byte) (int, error) { return b.r.raw.Read(p) }
func (b rawBody) Close() error               { return b.r.closeRaw() }

// closeRaw closes the body, then lets go of the context of the hop.
func (r *Response) closeRaw() error {
	err := r.raw.Close()
	if r.release != nil {
		r.release()
	}
	return err
}
