// Package tickvault is a client for the TickVault tabular time-series
// query service. Construct a Client with New, then run queries through
// the Query service:
//
//	c, err := tickvault.New(
//		tickvault.WithBaseURL("vault.example.com"),
//		tickvault.WithAuth("svc-user", "secret"),
//	)
//	...
//	records, err := c.Query().Run(ctx, tickvault.Query{
//		System:     "prod",
//		Dataset:    "nyse_tick",
//		Source:     "consolidated",
//		Tickers:    []string{"AAPL"},
//		Start:      20210301093000,
//		End:        20210301160000,
//		Predicates: predicate.Raw("line_type = QA,QB and askprice >= 3"),
//	})
package tickvault

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/tickvault/go-tickvault-client/auth"
	"golang.org/x/time/rate"
)

const (
	userAgent         = "go-tickvault-client/0.1"
	defaultMaxRetries = 3
)

// Client is a reusable TickVault API client.
type Client struct {
	httpClient     *http.Client
	baseURL        *url.URL
	defaultHeaders http.Header
	retryPolicy    RetryPolicy
	maxRetries     int
	logger         Logger
	limiter        *rate.Limiter

	tokenSource *auth.TokenSource
	staticToken string
	useAuth     bool
	authUser    string
	authPass    string
	wraps       []func(http.RoundTripper) http.RoundTripper
}

// New constructs a Client with provided options.
func New(opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient:     &http.Client{},
		defaultHeaders: make(http.Header),
		retryPolicy:    DefaultRetryPolicy,
		maxRetries:     defaultMaxRetries,
	}
	c.defaultHeaders.Set("Accept", "application/json")
	c.defaultHeaders.Set("User-Agent", userAgent)

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.baseURL == nil {
		return nil, ErrInvalidBaseURL
	}
	if c.httpClient == nil {
		return nil, ErrNilHTTPClient
	}

	c.assembleTransport()
	return c, nil
}

// assembleTransport layers the configured wrappers and auth onto the HTTP
// client's transport. The original http.Client is never mutated; a shallow
// copy carries the chain.
func (c *Client) assembleTransport() {
	transport := c.httpClient.Transport
	for _, wrap := range c.wraps {
		transport = wrap(transport)
	}

	if c.useAuth && c.tokenSource == nil {
		// Token requests go through the wrapped chain but not through the
		// token transport itself.
		c.tokenSource = &auth.TokenSource{
			Endpoint: c.baseURL.JoinPath("sso", "token").String(),
			Username: c.authUser,
			Password: c.authPass,
			Client:   &http.Client{Transport: transport, Timeout: c.httpClient.Timeout},
		}
	}
	switch {
	case c.tokenSource != nil:
		transport = &auth.TokenTransport{Source: c.tokenSource, Base: transport}
	case c.staticToken != "":
		transport = &auth.BearerTransport{Token: c.staticToken, Base: transport}
	}

	if transport != c.httpClient.Transport {
		hc := *c.httpClient
		hc.Transport = transport
		c.httpClient = &hc
	}
}

// Query returns the service for running tabular queries.
func (c *Client) Query() *QueryService {
	return &QueryService{client: c}
}

// Token returns a bearer token for the configured credentials, fetching
// one if needed. Useful for handing a token to other tooling.
func (c *Client) Token(ctx context.Context) (string, error) {
	switch {
	case c.tokenSource != nil:
		return c.tokenSource.Token(ctx)
	case c.staticToken != "":
		return c.staticToken, nil
	default:
		return "", ErrNoAuth
	}
}

// BaseURL returns the configured service base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) buildURL(endpoint string, query url.Values) string {
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	u := *c.baseURL
	u.Path = path.Join(c.baseURL.Path, endpoint)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, opts []RequestOption) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.buildURL(endpoint, query), nil)
	if err != nil {
		return nil, err
	}

	for key, values := range c.defaultHeaders {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(req); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.logger != nil {
		c.logger.Debugf("tickvault: %s %s", req.Method, req.URL)
	}

	resp, err := c.doRetry(ctx, func() (*http.Response, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return c.httpClient.Do(req)
	})
	if err != nil {
		if c.logger != nil {
			c.logger.Errorf("tickvault: %s %s: %v", req.Method, req.URL, err)
		}
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	data, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr != nil {
		return nil, readErr
	}

	apiErr := &APIError{Status: resp.StatusCode, Raw: data}
	if err := json.Unmarshal(data, apiErr); err != nil || apiErr.Message == "" {
		// Not every error body is the JSON shape; keep the text.
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if c.logger != nil {
		c.logger.Errorf("tickvault: request failed status=%d", resp.StatusCode)
	}
	return nil, apiErr
}
