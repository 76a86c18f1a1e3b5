// Package client is a small Go client for the ID360 gateway API, used by the
// CLI and usable by other services sitting in front of the gateway.
package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client

	// identity material forwarded on every request
	delegatedToken string
	sessionToken   string
	assertedRoles  []string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithDelegatedToken forwards a pre-acquired delegated token, which the
// gateway resolves as a direct delegated credential.
func WithDelegatedToken(token string) Option {
	return func(c *Client) { c.delegatedToken = token }
}

// WithSessionToken forwards a session token for on-behalf-of exchange.
func WithSessionToken(token string) Option {
	return func(c *Client) { c.sessionToken = token }
}

// WithAssertedRoles declares caller roles via the role assertion header.
func WithAssertedRoles(roles []string) Option {
	return func(c *Client) { c.assertedRoles = roles }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// identityHeaders applies the configured identity material to a request.
func (c *Client) identityHeaders(req *http.Request) {
	if c.delegatedToken != "" {
		req.Header.Set("X-MS-TOKEN-AAD-ACCESS-TOKEN", c.delegatedToken)
	}
	if c.sessionToken != "" {
		req.Header.Set("x-ms-auth-token", c.sessionToken)
	}
	if len(c.assertedRoles) > 0 {
		if encoded, err := json.Marshal(c.assertedRoles); err == nil {
			req.Header.Set("X-User-Roles", string(encoded))
		}
	}
}

type urlBuilder struct {
	base  string
	path  string
	query url.Values
}

func (c *Client) url() *urlBuilder {
	return &urlBuilder{base: c.baseURL, query: url.Values{}}
}

func (b *urlBuilder) setPath(path string) *urlBuilder {
	b.path = path
	return b
}

func (b *urlBuilder) addQueryParam(key string, value any) *urlBuilder {
	b.query.Set(key, fmt.Sprint(value))
	return b
}

func (b *urlBuilder) build() string {
	u := b.base + b.path
	if len(b.query) > 0 {
		u += "?" + b.query.Encode()
	}
	return u
}
