// Package apiclient wraps outbound calls to the villa booking API.  Every
// request goes to a fixed base path and carries the browser session's
// backend credentials through a cookie jar.  There are no retries; a call
// either completes within the client timeout or fails.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 1 << 20

// Client talks to the remote API.  A Client is safe for concurrent use; use
// WithJar to derive a per-session client sharing the same transport.
type Client struct {
	base    string
	timeout time.Duration
	hc      *http.Client
}

// New validates baseURL (e.g. http://localhost:5000/api) and returns a
// client without credentials.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url %q: scheme must be http or https", baseURL)
	}
	return &Client{
		base:    strings.TrimRight(u.String(), "/"),
		timeout: timeout,
		hc:      &http.Client{Timeout: timeout},
	}, nil
}

// BaseURL returns the normalized base path.
func (c *Client) BaseURL() string { return c.base }

// WithJar returns a copy of c that sends and stores cookies through jar.
func (c *Client) WithJar(jar http.CookieJar) *Client {
	return &Client{
		base:    c.base,
		timeout: c.timeout,
		hc:      &http.Client{Timeout: c.timeout, Transport: c.hc.Transport, Jar: jar},
	}
}

// URL joins path (which may carry a query string) onto the base path.
func (c *Client) URL(path string) string {
	return c.base + "/" + strings.TrimLeft(path, "/")
}

// Do sends body as JSON (when non-nil) and decodes a 2xx response into out
// (when non-nil).  Non-2xx responses come back as *Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

// Get is shorthand for a body-less GET.
func (c *Client) Get(ctx context.Context, path string, q url.Values, out any) error {
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// DoMultipart sends form as multipart/form-data.
func (c *Client) DoMultipart(ctx context.Context, method, path string, form *Form, out any) error {
	body, contentType, err := form.encode()
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", contentType)
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}
