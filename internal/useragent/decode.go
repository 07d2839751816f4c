package useragent

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

func contentEncoding(h Header) string {
	enc := strings.ToLower(strings.TrimSpace(h.Get("Content-Encoding")))
	if enc == "" {
		return "identity"
	}
	return enc
}

func unsupportedEncoding(enc string) error {
	switch enc {
	case "identity", "gzip", "deflate":
		return nil
	case "compress":
		return &DecodeError{Encoding: enc, Reason: "unsupported content encoding"}
	}
	return &DecodeError{Encoding: enc, Reason: "unknown content encoding"}
}

// decodeAll reads r to the end and decodes it according to enc. read errors
// of r are returned as they are, codec failures as *DecodeError.
func decodeAll(enc string, r io.Reader) ([]byte, error) {
	if err := unsupportedEncoding(enc); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(r)
	if err != nil || enc == "identity" {
		return body, err
	}
	switch enc {
	case "gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, &DecodeError{Encoding: enc, Cause: err}
		}
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, &DecodeError{Encoding: enc, Cause: err}
		}
		return out, nil
	default:
		// servers disagree on whether deflate means zlib or a bare stream
		out, err := inflateZlib(body)
		if err == nil {
			return out, nil
		}
		out, rawErr := io.ReadAll(flate.NewReader(bytes.NewReader(body)))
		if rawErr != nil {
			return nil, &DecodeError{Encoding: enc, Cause: rawErr}
		}
		return out, nil
	}
}

func inflateZlib(body []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

type decodingReader struct {
	io.Reader
	closers []io.Closer
}

func (d *decodingReader) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// decodeStream wraps body with the decoder for enc without buffering it.
// for deflate the variant is picked from the first two bytes.
func decodeStream(enc string, body io.ReadCloser) (io.ReadCloser, error) {
	if err := unsupportedEncoding(enc); err != nil {
		return nil, err
	}
	switch enc {
	case "gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, &DecodeError{Encoding: enc, Cause: err}
		}
		return &decodingReader{Reader: zr, closers: []io.Closer{zr, body}}, nil
	case "deflate":
		br := bufio.NewReader(body)
		if head, err := br.Peek(2); err == nil && isZlibHeader(head) {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, &DecodeError{Encoding: enc, Cause: err}
			}
			return &decodingReader{Reader: zr, closers: []io.Closer{zr, body}}, nil
		}
		fr := flate.NewReader(br)
		return &decodingReader{Reader: fr, closers: []io.Closer{fr, body}}, nil
	}
	return body, nil
}

func isZlibHeader(b []byte) bool {
	return b[0]&0x0f == 8 && (uint16(b[0])<<8|uint16(b[1]))%31 == 0
}
