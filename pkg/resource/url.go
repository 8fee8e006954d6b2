package resource

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"golang.org/x/text/encoding"
)

const _defaultURLTimeout = 30 * time.Second

var _ Resource = (*URL)(nil)

// URL is a resource fetched with HTTP GET. Every Open call issues a request;
// wrap it with Cache to avoid refetching.
type URL struct {
	url    string
	client *http.Client
	enc    encoding.Encoding
}

// NewURL returns a resource for rawURL. The text stream is decoded with the
// encoding given by opts, or else with the charset the server declares in
// Content-Type, or else as UTF-8.
func NewURL(rawURL string, opts ...Option) (*URL, error) {
	o, err := newOptions(opts)
	if err != nil {
		return nil, err
	}
	client := o.client
	if client == nil {
		client = &http.Client{Timeout: _defaultURLTimeout}
	}
	return &URL{url: rawURL, client: client, enc: o.enc}, nil
}

// OpenBytes fetches the body.
func (u *URL) OpenBytes() (io.ReadCloser, error) {
	resp, err := u.do(http.MethodGet)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// OpenText fetches the body and decodes it.
func (u *URL) OpenText() (io.ReadCloser, error) {
	resp, err := u.do(http.MethodGet)
	if err != nil {
		return nil, err
	}
	enc := u.enc
	if enc == nil {
		enc = responseEncoding(resp)
	}
	return decodeText(resp.Body, enc), nil
}

// LastModified issues a HEAD request and parses Last-Modified. A missing or
// malformed header yields the zero time.
func (u *URL) LastModified() (time.Time, error) {
	resp, err := u.do(http.MethodHead)
	if err != nil {
		return time.Time{}, err
	}
	resp.Body.Close()
	lm := resp.Header.Get("Last-Modified")
	if lm == "" {
		return time.Time{}, nil
	}
	t, err := http.ParseTime(lm)
	if err != nil {
		return time.Time{}, nil
	}
	return t, nil
}

func (u *URL) do(method string) (*http.Response, error) {
	req, err := http.NewRequest(method, u.url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s: unexpected status %s", method, u.url, resp.Status)
	}
	return resp, nil
}

func (u *URL) String() string { return u.url }

// responseEncoding returns the encoding declared by the charset parameter of
// the response Content-Type, or nil.
func responseEncoding(resp *http.Response) encoding.Encoding {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil
	}
	cs, ok := params["charset"]
	if !ok {
		return nil
	}
	enc, err := LookupEncoding(cs)
	if err != nil {
		return nil
	}
	return enc
}
