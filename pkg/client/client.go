// Package client is a thin wrapper for CLI tools to call confkitd's JSON API
// over a Unix domain socket. It reuses the DTOs from pkg/api so callers get
// strongly-typed results instead of generic maps.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lc/confkit/internal/binding"
	"github.com/lc/confkit/internal/socket"
	"github.com/lc/confkit/pkg/api"
)

// ErrNotFound is matched by errors for requests naming an unknown binding.
var ErrNotFound = errors.New("binding not found")

// Error is a non-2xx answer from the daemon.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("daemon returned %d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

// Is reports 404 answers as ErrNotFound.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client holds an http.Client wired to a Unix socket.
type Client struct {
	hc   *http.Client
	base string // dummy scheme+host for Request.URL (http://unix)
}

// Option configures a Client.
type Option func(*socket.Config)

// WithStartupTimeout bounds how long the client waits for a starting daemon.
func WithStartupTimeout(d time.Duration) Option {
	return func(c *socket.Config) { c.StartupTimeout = d }
}

// New returns a Client that dials the given Unix-domain socket path,
// retrying while the daemon starts up.
func New(socketPath string, opts ...Option) *Client {
	cfg := socket.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	sock := socket.New(cfg, &socket.DefaultProcessChecker{})
	tr := &http.Transport{DialContext: sock.DialFunc(socketPath)}
	return &Client{hc: &http.Client{Transport: tr}, base: "http://unix"}
}

// --------------------------- commands ------------------------------

// Bind adds or replaces a binding and returns its ID.
func (c *Client) Bind(ctx context.Context, spec binding.Spec) (string, error) {
	var out api.BindResponse
	err := c.post(ctx, "/v1/bind", api.BindRequest{Spec: spec}, &out)
	return out.ID, err
}

// Unbind removes the binding with the given ID or name.
func (c *Client) Unbind(ctx context.Context, ref string) error {
	return c.post(ctx, "/v1/unbind", api.UnbindRequest{Ref: ref}, nil)
}

// Bindings lists the daemon's bindings ordered by name.
func (c *Client) Bindings(ctx context.Context) ([]binding.Info, error) {
	var out []binding.Info
	err := c.get(ctx, "/v1/bindings", &out)
	return out, err
}

// Text returns the current text of a binding.
func (c *Client) Text(ctx context.Context, name string) (api.TextResponse, error) {
	var out api.TextResponse
	err := c.get(ctx, "/v1/text?name="+url.QueryEscape(name), &out)
	return out, err
}

// Document returns the flattened document of a binding.
func (c *Client) Document(ctx context.Context, name string) (api.DocumentResponse, error) {
	var out api.DocumentResponse
	err := c.get(ctx, "/v1/document?name="+url.QueryEscape(name), &out)
	return out, err
}

// Status retrieves the current status of the daemon.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.get(ctx, "/v1/status", &out)
	return out, err
}

// --------------------------- HTTP helpers --------------------------

func (c *Client) post(ctx context.Context, path string, payload, v any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e api.ErrorResponse
		if derr := json.NewDecoder(resp.Body).Decode(&e); derr != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: e.Error}
	}
	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
