package useragent

import (
	"context"
	"fmt"
	"io"
	"os"
)

const DownloadChunkSize = 16 * 1024

// Download issues the call and copies the raw body to w, chunk by chunk,
// until it is exhausted. the body is not decoded.
func (a *UserAgent) Download(ctx context.Context, rawURL string, w io.Writer, opts ...CallOption) (*Response, error) {
	resp, err := a.Issue(ctx, rawURL, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Close()
	buf := make([]byte, DownloadChunkSize)
	for {
		n, rerr := resp.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return resp, fmt.Errorf("writing %s: %w", rawURL, werr)
			}
		}
		if rerr == io.EOF {
			return resp, nil
		}
		if rerr != nil {
			return resp, &ConnectionError{URL: rawURL, Message: "reading body", Cause: rerr, Request: resp.Request(), Response: resp}
		}
	}
}

// DownloadFile is Download into the file at path, which is created or
// truncated.
func (a *UserAgent) DownloadFile(ctx context.Context, rawURL, path string, opts ...CallOption) (*Response, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	resp, err := a.Download(ctx, rawURL, f, opts...)
	if resp == nil {
		f.Close()
		os.Remove(path)
		return nil, err
	}
	if cerr := f.Close(); err == nil && cerr != nil {
		return resp, cerr
	}
	return resp, err
}
