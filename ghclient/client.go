package ghclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// DefaultTimeout is the HTTP request timeout applied to every GitHub call.
const DefaultTimeout = 30 * time.Second

// ErrNoToken is returned when a client is requested without a token.
var ErrNoToken = errors.New("github: personal access token is empty")

// Option customizes the client built by New.
type Option func(*options)

type options struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at a different API root, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(o *options) { o.baseURL = baseURL }
}

// WithHTTPClient makes the token transport wrap the given client's transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// New creates a go-github client that authenticates every request with
// "Authorization: Bearer <token>".
func New(ctx context.Context, token string, opts ...Option) (*gh.Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	client := gh.NewClient(tc)
	if o.baseURL != "" {
		base := o.baseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		u, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub base URL '%s' with %w", o.baseURL, err)
		}
		client.BaseURL = u
	}

	return client, nil
}

// StatusCode extracts the HTTP status of a failed go-github call, or 0.
func StatusCode(err error) int {
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	return 0
}

// ResponseMessage extracts the upstream message of a failed go-github call.
func ResponseMessage(err error) string {
	var ghErr *gh.ErrorResponse
	if !errors.As(err, &ghErr) {
		return ""
	}
	parts := []string{ghErr.Message}
	for _, e := range ghErr.Errors {
		if e.Message != "" {
			parts = append(parts, e.Message)
		} else if e.Code != "" {
			parts = append(parts, fmt.Sprintf("%s %s", e.Field, e.Code))
		}
	}
	return strings.Join(parts, "; ")
}
