package tickvault

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tickvault/go-tickvault-client/auth"
)

// Logger represents the minimal logging interface used by the client.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

// ClientOption configures a Client during construction.
type ClientOption func(*Client) error

// RequestOption configures an outgoing HTTP request at call time.
type RequestOption func(*http.Request) error

// WithBaseURL sets the TickVault service base URL. Bare hosts are given an
// https scheme; a trailing slash is dropped.
func WithBaseURL(raw string) ClientOption {
	return func(c *Client) error {
		if raw == "" {
			return ErrInvalidBaseURL
		}
		if !strings.Contains(raw, "://") {
			raw = "https://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return err
		}
		if !u.IsAbs() || u.Host == "" {
			return ErrInvalidBaseURL
		}
		u.Path = strings.TrimSuffix(u.Path, "/")
		c.baseURL = u
		return nil
	}
}

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) error {
		if httpClient == nil {
			return ErrNilHTTPClient
		}
		c.httpClient = httpClient
		return nil
	}
}

// WithTimeout sets a per-request timeout on the underlying http.Client.
// Order after WithHTTPClient; an injected client is copied, never mutated.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) error {
		if timeout <= 0 {
			return nil
		}
		hc := http.Client{}
		if c.httpClient != nil {
			hc = *c.httpClient
		}
		hc.Timeout = timeout
		c.httpClient = &hc
		return nil
	}
}

// WithDefaultHeader registers a header applied to every request.
func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) error {
		if key == "" {
			return nil
		}
		if c.defaultHeaders == nil {
			c.defaultHeaders = make(http.Header)
		}
		c.defaultHeaders.Add(key, value)
		return nil
	}
}

// WithRetryPolicy configures the retry behavior for retriable requests.
func WithRetryPolicy(policy RetryPolicy) ClientOption {
	return func(c *Client) error {
		c.retryPolicy = policy
		return nil
	}
}

// WithMaxRetries caps how many times a failed request is retried.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) error {
		if n >= 0 {
			c.maxRetries = n
		}
		return nil
	}
}

// WithLogger registers a logger used for request lifecycle events.
func WithLogger(logger Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithAuth configures the client-credentials flow: tokens are fetched from
// the service's sso/token endpoint with the given credentials, cached, and
// attached to every request.
func WithAuth(username, password string) ClientOption {
	return func(c *Client) error {
		c.useAuth = true
		c.authUser = username
		c.authPass = password
		return nil
	}
}

// WithTokenSource attaches bearer tokens from a caller-managed source,
// for a token endpoint that does not live under the service base URL.
func WithTokenSource(src *auth.TokenSource) ClientOption {
	return func(c *Client) error {
		c.tokenSource = src
		return nil
	}
}

// WithStaticToken attaches a fixed bearer token to every request.
func WithStaticToken(token string) ClientOption {
	return func(c *Client) error {
		c.staticToken = token
		return nil
	}
}

// WithRateLimit throttles outgoing requests to rps requests per second
// with the given burst.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) error {
		if rps <= 0 {
			c.limiter = nil
			return nil
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		return nil
	}
}

// WithCompression asks the service for gzip responses and decompresses
// them transparently. Worth enabling for large tick payloads.
func WithCompression() ClientOption {
	return func(c *Client) error {
		c.wraps = append(c.wraps, func(base http.RoundTripper) http.RoundTripper {
			return &compressTransport{base: base}
		})
		return nil
	}
}

// WithRequestIDs stamps every request with a fresh X-Request-ID so calls
// can be correlated with service-side logs.
func WithRequestIDs() ClientOption {
	return func(c *Client) error {
		c.wraps = append(c.wraps, func(base http.RoundTripper) http.RoundTripper {
			return &requestIDTransport{base: base}
		})
		return nil
	}
}

// Header returns a RequestOption that sets a header value.
func Header(key, value string) RequestOption {
	return func(req *http.Request) error {
		if key == "" {
			return nil
		}
		req.Header.Set(key, value)
		return nil
	}
}

// AddHeader returns a RequestOption that appends to a header value.
func AddHeader(key, value string) RequestOption {
	return func(req *http.Request) error {
		if key == "" {
			return nil
		}
		req.Header.Add(key, value)
		return nil
	}
}

// QueryParam returns a RequestOption that sets a query parameter.
func QueryParam(key, value string) RequestOption {
	return func(req *http.Request) error {
		if key == "" {
			return nil
		}
		q := req.URL.Query()
		q.Set(key, value)
		req.URL.RawQuery = q.Encode()
		return nil
	}
}
