package http

import (
	"context"
	"io"
	"net/http"
)

type Dialer interface {
	Dial(ctx context.Context, r *PreparedRequest) (io.ReadWriteCloser, error)
	Unwrap() Dialer
}

type Request struct {
	Method string
	URL    string
	Body   interface{}
	Header http.Header
}

// Field is a single response header line, kept in wire order.
type Field struct {
	Name  string
	Value string
}

type Response struct {
	Proto      string
	Status     string
	StatusCode int
	Header     http.Header
	Fields     []Field

	ContentLength int64
	Body          io.ReadCloser

	// Close is set when the connection can't be reused after the body,
	// either because the server asked for it or the body is delimited by EOF.
	Close bool
}
