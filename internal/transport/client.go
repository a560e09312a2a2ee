package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/ficscrape/ao3fetch/internal/config"
	"github.com/ficscrape/ao3fetch/pkg/failure"
)

/*
Responsibilities

- Own the HTTP connection pool and session cookie state
- Apply the identifying user agent to every request
- Enforce the fixed per-request timeout

Redirect Semantics

The underlying http.Client never follows redirects on its own. The page
fetcher classifies 3xx responses and replays them explicitly, because
redirects to the login flow must be treated as terminal rather than
followed.

The transport never reads response bodies and never retries; it only
moves requests and responses.
*/

type Client struct {
	httpClient *http.Client
	baseOrigin url.URL
	userAgent  string
}

// New builds the shared session transport from configuration.
// Cookie jar creation is the only construction-time failure.
func New(cfg config.Config) (*Client, failure.ClassifiedError) {
	httpClient := &http.Client{
		Timeout: cfg.Timeout(),
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	if cfg.CookieJar() {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, &TransportError{
				Message: fmt.Sprintf("%v", err),
				Cause:   ErrCauseJarCreation,
			}
		}
		httpClient.Jar = jar
	}

	return &Client{
		httpClient: httpClient,
		baseOrigin: cfg.BaseOrigin(),
		userAgent:  cfg.UserAgent(),
	}, nil
}

// Get issues a single GET request. The response body is left open for
// the caller to consume and close.
func (c *Client) Get(ctx context.Context, fetchUrl url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchUrl.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return c.httpClient.Do(req)
}

// PostForm issues a single form-encoded POST request. Used by the
// authentication helper; the session cookie from the response lands in
// the shared jar.
func (c *Client) PostForm(ctx context.Context, postUrl url.URL, body string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, postUrl.String(), strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.httpClient.Do(req)
}

func (c *Client) BaseOrigin() url.URL {
	return c.baseOrigin
}

func (c *Client) UserAgent() string {
	return c.userAgent
}
