package useragent

import (
	"fmt"
	"io"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

const (
	formContentType   = "application/x-www-form-urlencoded; charset=utf-8"
	binaryContentType = "application/octet-stream"
)

// asForm converts mapping payloads to form values.
func asForm(payload any) (url.Values, bool) {
	switch p := payload.(type) {
	case url.Values:
		return p, true
	case map[string][]string:
		return url.Values(p), true
	case map[string]string:
		v := make(url.Values, len(p))
		for k, s := range p {
			v.Set(k, s)
		}
		return v, true
	case map[string]any:
		v := make(url.Values, len(p))
		for k, s := range p {
			if ss, ok := s.([]string); ok {
				v[k] = ss
				continue
			}
			v.Set(k, fmt.Sprint(s))
		}
		return v, true
	}
	return nil, false
}

func isEmptyPayload(payload any) bool {
	if payload == nil {
		return true
	}
	switch p := payload.(type) {
	case string:
		return p == ""
	case []byte:
		return len(p) == 0
	}
	v := reflect.ValueOf(payload)
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		return v.Len() == 0
	case reflect.Pointer:
		return v.IsNil()
	}
	return false
}

func stringify(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case []byte:
		return p, nil
	case string:
		return []byte(p), nil
	case io.Reader:
		return io.ReadAll(p)
	case fmt.Stringer:
		return []byte(p.String()), nil
	}
	if form, ok := asForm(payload); ok {
		return []byte(form.Encode()), nil
	}
	return []byte(fmt.Sprint(payload)), nil
}

// withFields merges extra form fields into payload. they become the payload
// when there is none, and are ignored for payloads that aren't mappings.
func withFields(payload any, fields map[string]string) any {
	if len(fields) == 0 {
		return payload
	}
	if isEmptyPayload(payload) {
		v := make(url.Values, len(fields))
		for k, s := range fields {
			v.Set(k, s)
		}
		return v
	}
	form, ok := asForm(payload)
	if !ok {
		return payload
	}
	merged := make(url.Values, len(form)+len(fields))
	for k, vs := range form {
		merged[k] = append([]string(nil), vs...)
	}
	for k, s := range fields {
		merged.Set(k, s)
	}
	return merged
}

// encodePayload turns payload into the request body, setting content-type
// and content-length on header. empty payloads leave header untouched.
func encodePayload(payload any, header *Header) ([]byte, error) {
	if isEmptyPayload(payload) {
		return nil, nil
	}
	var (
		body []byte
		err  error
	)
	ct := header.Get("Content-Type")
	switch {
	case ct == "":
		if form, ok := asForm(payload); ok {
			header.Set("Content-Type", formContentType)
			body = []byte(form.Encode())
			break
		}
		header.Set("Content-Type", binaryContentType)
		body, err = stringify(payload)
	case strings.HasPrefix(strings.ToLower(ct), "multipart/form-data"):
		return nil, ErrMultipartUnsupported
	default:
		body, err = stringify(payload)
	}
	if err != nil {
		return nil, fmt.Errorf("reading payload: %w", err)
	}
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return body, nil
}
