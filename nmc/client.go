package nmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"
)

const DefaultBaseURL = "http://www.nmc.cn"

var (
	// ErrFetch covers transport errors, non 2xx responses and undecodable bodies.
	ErrFetch = errors.New("nmc fetch failed")
	// ErrParse is returned when a response lacks a field the snapshot can't do without.
	ErrParse = errors.New("nmc parse failed")
)

type Client struct {
	baseURL   *url.URL
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// New creates a client for the given base URL, an empty string means
// DefaultBaseURL. The client has no timeout of its own, callers bound each
// request with the context.
func New(baseURL string, userAgent string) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid nmc base url %q: %w", baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid nmc base url %q: scheme and host required", baseURL)
	}

	return &Client{
		baseURL:   u,
		userAgent: userAgent,
		http:      &http.Client{},
		logger:    slog.Default().With("module", "nmc"),
	}, nil
}

func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Resolve resolves a possibly relative reference against the base URL.
func (c *Client) Resolve(ref string) (*url.URL, error) {
	return resolve(c.baseURL, ref)
}

func resolve(base *url.URL, ref string) (*url.URL, error) {
	r, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, err
	}
	return base.ResolveReference(r), nil
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %w", ErrFetch, u, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		res.Body.Close()
		return nil, fmt.Errorf("%w: get %s: unexpected status %s", ErrFetch, u, res.Status)
	}

	return res, nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	c.logger.Debug("fetching json from nmc...", slog.String("url", u))

	res, err := c.get(ctx, u)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: reading body of %s: %w", ErrFetch, u, err)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: decoding json from %s: %w", ErrFetch, u, err)
	}

	return nil
}

// getText returns the body as UTF-8 text, transcoding from whatever
// charset the server declares.
func (c *Client) getText(ctx context.Context, u string) (string, error) {
	c.logger.Debug("fetching page from nmc...", slog.String("url", u))

	res, err := c.get(ctx, u)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	r, err := charset.NewReader(res.Body, res.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("%w: detecting charset of %s: %w", ErrFetch, u, err)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: reading body of %s: %w", ErrFetch, u, err)
	}

	return string(body), nil
}

// Download returns the raw bytes and content type of u.
func (c *Client) Download(ctx context.Context, u string) ([]byte, string, error) {
	c.logger.Debug("downloading from nmc...", slog.String("url", u))

	res, err := c.get(ctx, u)
	if err != nil {
		return nil, "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, "", fmt.Errorf("%w: reading body of %s: %w", ErrFetch, u, err)
	}

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}

	return body, contentType, nil
}
