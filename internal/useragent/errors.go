package useragent

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrRedirectLimit is the cause of the error recorded when an attempt
	// kept redirecting until its redirect budget ran out.
	ErrRedirectLimit = errors.New("redirection limit reached")

	ErrBodyConsumed         = errors.New("response body already consumed")
	ErrMultipartUnsupported = errors.New("multipart/form-data payloads are not supported")
)

// ConnectionError is the base of every failure Issue reports. URL is the url
// the call was issued for, Request and Response the hop that failed, when
// known.
type ConnectionError struct {
	URL      string
	Message  string
	Cause    error
	Request  *Request
	Response *Response
}

func (e *ConnectionError) Error() string {
	msg := "URL " + e.URL + ": " + e.Message
	if e.Cause != nil {
		if e.Message == "" {
			return "URL " + e.URL + ": " + e.Cause.Error()
		}
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *ConnectionError) Unwrap() error { return e.Cause }

// BadStatusCode reports a reply whose status is not in the accepted set.
type BadStatusCode struct {
	ConnectionError
	StatusCode int
}

func (e *BadStatusCode) As(target any) bool {
	if t, ok := target.(**ConnectionError); ok {
		*t = &e.ConnectionError
		return true
	}
	return false
}

// RetriesExceeded reports an exhausted budget: the retry budget of the call,
// or the redirect budget of an attempt when Cause is ErrRedirectLimit.
type RetriesExceeded struct {
	ConnectionError
	Retries int
}

func (e *RetriesExceeded) As(target any) bool {
	if t, ok := target.(**ConnectionError); ok {
		*t = &e.ConnectionError
		return true
	}
	return false
}

func newBadStatusCode(url string, req *Request, resp *Response) *BadStatusCode {
	return &BadStatusCode{
		ConnectionError: ConnectionError{
			URL:      url,
			Message:  fmt.Sprintf("bad status code %d", resp.StatusCode()),
			Request:  req,
			Response: resp,
		},
		StatusCode: resp.StatusCode(),
	}
}

func newRedirectLimit(url string, maxRedirects int, req *Request) *RetriesExceeded {
	return &RetriesExceeded{
		ConnectionError: ConnectionError{
			URL:     url,
			Message: fmt.Sprintf("redirection limit reached (%d)", maxRedirects),
			Cause:   ErrRedirectLimit,
			Request: req,
		},
		Retries: maxRedirects,
	}
}

func newRetriesExceeded(url string, maxRetries int, last error) *RetriesExceeded {
	return &RetriesExceeded{
		ConnectionError: ConnectionError{
			URL:     url,
			Message: fmt.Sprintf("retries exceeded (%d)", maxRetries),
			Cause:   last,
		},
		Retries: maxRetries,
	}
}

// DecodeError reports a body that could not be decoded. it is not a
// ConnectionError. URL is set when the error comes out of a call.
type DecodeError struct {
	URL      string
	Encoding string
	Reason   string
	Cause    error
}

func (e *DecodeError) Error() string {
	msg := e.Reason + ": " + e.Encoding
	if e.Cause != nil {
		msg = fmt.Sprintf("decoding %s content: %v", e.Encoding, e.Cause)
	}
	if e.URL != "" {
		return "URL " + e.URL + ": " + msg
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// IsTimeout reports whether err is, or wraps, a deadline or a network
// timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
