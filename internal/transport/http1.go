package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"sort"
	"strconv"
	"strings"

	ihttp "github.com/frankli0324/go-useragent/internal/http"
	"github.com/frankli0324/go-useragent/internal/transport/chunked"
)

var ErrMalformedResponse = errors.New("malformed HTTP response")

type HTTP1 struct{}

func (t HTTP1) RoundTrip(ctx context.Context, rw io.ReadWriter, req *ihttp.PreparedRequest, resp *ihttp.Response) error {
	if err := t.Write(ctx, rw, req); err != nil {
		return err
	}
	return t.Read(ctx, rw, req, resp)
}

func (t HTTP1) Write(ctx context.Context, w io.Writer, r *ihttp.PreparedRequest) error {
	body, err := r.GetBody() // can write body
	if err != nil {
		return err
	}
	if body != nil {
		defer body.Close() // request body is ALWAYS closed
	}

	bw := bufio.NewWriter(w) // default bufsize is 4096
	chunkedBody := r.HasBody() && r.ContentLength == -1
	if err := t.writeHeader(bw, r, chunkedBody); err != nil {
		return err
	}
	if body != nil && body != ihttp.NoBody {
		if chunkedBody {
			cw := chunked.NewChunkedWriter(bw)
			if _, err := io.Copy(cw, body); err != nil {
				return err
			}
			if err := cw.CloseWithTrailer(nil); err != nil {
				return err
			}
		} else if _, err := io.Copy(bw, body); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeHeader writes the status and header part of an http 1.1 request
// e.g.:
//
//	GET / HTTP/1.1\r\n
//	Host: www.google.com\r\n
//	X-Xx-Yy: cccccc\r\n
//	\r\n
//
// header names are written as given, in sorted order.
func (t HTTP1) writeHeader(header *bufio.Writer, r *ihttp.PreparedRequest, chunkedBody bool) error {
	if _, err := header.WriteString(r.Method); err != nil {
		return err
	}
	header.WriteByte(' ')
	if r.Method == "CONNECT" {
		header.WriteString(r.U.Path)
	} else {
		header.WriteString(r.U.RequestURI())
	}
	header.WriteString(" HTTP/1.1\r\n")

	header.WriteString("Host: ")
	header.WriteString(r.HeaderHost)
	header.WriteString("\r\n")
	if r.ContentLength != -1 {
		header.WriteString("Content-Length: ")
		header.WriteString(strconv.FormatInt(r.ContentLength, 10))
		header.WriteString("\r\n")
	} else if chunkedBody {
		header.WriteString("Transfer-Encoding: chunked\r\n")
	}
	keys := make([]string, 0, len(r.Header))
	for k := range r.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range r.Header[k] {
			header.WriteString(k)
			header.WriteString(": ")
			header.WriteString(v)
			if _, err := header.WriteString("\r\n"); err != nil {
				return err
			}
		}
	}
	_, err := header.WriteString("\r\n")
	return err
}

func (t HTTP1) Read(ctx context.Context, r io.Reader, req *ihttp.PreparedRequest, resp *ihttp.Response) (err error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	tp := textproto.NewReader(br)

	for {
		if err := t.readStatus(tp, resp); err != nil {
			return err
		}
		if err := t.readFields(tp, resp); err != nil {
			return err
		}
		// 1xx informational responses are followed by the final one,
		// 101 is final since the connection has switched protocols
		if resp.StatusCode < 100 || resp.StatusCode > 199 || resp.StatusCode == 101 {
			break
		}
	}
	return t.readTransfer(br, req, resp)
}

func (t HTTP1) readStatus(tp *textproto.Reader, resp *ihttp.Response) error {
	line, err := tp.ReadLine()
	if err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return err
	}
	proto, status, ok := strings.Cut(line, " ")
	if !ok {
		return ErrMalformedResponse
	}
	resp.Proto = proto
	resp.Status = strings.TrimLeft(status, " ")

	statusCode, _, _ := strings.Cut(resp.Status, " ")
	if len(statusCode) != 3 {
		return errors.New("malformed HTTP status code " + statusCode)
	}
	resp.StatusCode, err = strconv.Atoi(statusCode)
	if err != nil || resp.StatusCode < 0 {
		return errors.New("malformed HTTP status code")
	}
	return nil
}

// readFields parses the response headers, keeping both the canonical
// lookup map and the wire order.
func (t HTTP1) readFields(tp *textproto.Reader, resp *ihttp.Response) error {
	resp.Header = http.Header{}
	resp.Fields = resp.Fields[:0]
	for {
		line, err := tp.ReadContinuedLine()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return err
		}
		if line == "" {
			break
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			return fmt.Errorf("malformed MIME header line: %s", line)
		}
		k = textproto.TrimString(k)
		v = textproto.TrimString(v)
		resp.Fields = append(resp.Fields, ihttp.Field{Name: k, Value: v})
		resp.Header.Add(k, v)
	}
	if hp, ok := resp.Header["Pragma"]; ok && len(hp) > 0 && hp[0] == "no-cache" {
		if _, presentcc := resp.Header["Cache-Control"]; !presentcc {
			resp.Header["Cache-Control"] = []string{"no-cache"}
		}
	}
	return nil
}

func bodyless(req *ihttp.PreparedRequest, code int) bool {
	if req != nil && req.Method == "HEAD" {
		return true
	}
	if req != nil && req.Method == "CONNECT" && code >= 200 && code <= 299 {
		return true // the tunnel starts right after the header
	}
	return code == 204 || code == 304 || (code >= 100 && code <= 199)
}

func (t HTTP1) readTransfer(r *bufio.Reader, req *ihttp.PreparedRequest, resp *ihttp.Response) error {
	contentLens := resp.Header["Content-Length"]

	// Hardening against HTTP request smuggling, taken from standard library
	if len(contentLens) > 1 {
		// Per RFC 7230 Section 3.3.2
		first := textproto.TrimString(contentLens[0])
		for _, ct := range contentLens[1:] {
			if first != textproto.TrimString(ct) {
				return fmt.Errorf("http: message cannot contain multiple Content-Length headers; got %q", contentLens)
			}
		}
		contentLens = []string{first}
	}

	cl := int64(-1)
	if len(contentLens) > 0 {
		// Logic based on Content-Length
		n, err := strconv.ParseUint(contentLens[0], 10, 63)
		if err == nil {
			cl = int64(n)
		}
	}
	resp.Close = headerHasToken(resp.Header, "Connection", "close") || resp.Proto == "HTTP/1.0"

	switch {
	case bodyless(req, resp.StatusCode):
		resp.ContentLength = 0
		resp.Body = ihttp.NoBody
	case headerHasToken(resp.Header, "Transfer-Encoding", "chunked"):
		resp.ContentLength = -1
		resp.Body = io.NopCloser(chunked.NewChunkedReader(r))
	case cl > 0:
		resp.ContentLength = cl
		resp.Body = io.NopCloser(io.LimitReader(r, cl))
	case cl == 0:
		resp.ContentLength = 0
		resp.Body = ihttp.NoBody
	default:
		// delimited by connection close
		resp.ContentLength = -1
		resp.Close = true
		resp.Body = io.NopCloser(r)
	}
	return nil
}

func headerHasToken(h http.Header, key, token string) bool {
	for _, v := range h.Values(key) {
		for _, s := range strings.Split(v, ",") {
			if strings.EqualFold(strings.TrimSpace(s), token) {
				return true
			}
		}
	}
	return false
}
