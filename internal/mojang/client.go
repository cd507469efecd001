package mojang

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

const DefaultBaseURL = "https://api.mojang.com"

// ErrNotFound means the name or uuid simply does not exist upstream.
// It is an expected outcome, not a fault.
var ErrNotFound = errors.New("mojang profile not found")

type Client struct {
	baseURL string
	http    *fasthttp.Client

	defaultTimeout time.Duration
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.defaultTimeout = d }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &fasthttp.Client{ReadTimeout: 10 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 8},
		defaultTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProfileByName resolves a display name to its current profile via the
// batch lookup endpoint. An empty match set maps to ErrNotFound.
func (c *Client) ProfileByName(ctx context.Context, name string) (*Profile, error) {
	var profiles []Profile
	if err := c.doJSON(ctx, fasthttp.MethodPost, "/profiles/minecraft", []string{name}, &profiles); err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, ErrNotFound
	}
	return &profiles[0], nil
}

// NameHistory returns the profile's name timeline, oldest first.
func (c *Client) NameHistory(ctx context.Context, uuid string) ([]NameChange, error) {
	var history []NameChange
	path := fmt.Sprintf("/user/profiles/%s/names", strings.TrimSpace(uuid))
	if err := c.doJSON(ctx, fasthttp.MethodGet, path, nil, &history); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrNotFound
	}
	return history, nil
}

// doJSON issues one request without retrying: callers treat transport
// failures as a hard failure of their step and surface them.
func (c *Client) doJSON(ctx context.Context, method, path string, in any, out any) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	req.Header.SetContentType("application/json")

	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.SetBody(payload)
	}

	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return fmt.Errorf("mojang request failed: %w", err)
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusNoContent, status == fasthttp.StatusNotFound:
		return ErrNotFound
	case status < 200 || status >= 300:
		return fmt.Errorf("mojang api error: status=%d body=%s", status, truncate(string(resp.Body()), 256))
	}

	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.defaultTimeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
