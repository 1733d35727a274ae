package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// defaultTokenTTL bounds the cache lifetime of tokens that carry no
	// expiry information of their own.
	defaultTokenTTL = 15 * time.Minute

	// defaultMargin is how early a cached token is considered expired, so a
	// token never runs out mid-request.
	defaultMargin = 30 * time.Second

	maxTokenBody = 1 << 20
)

// TokenSource fetches and caches bearer tokens from an SSO token endpoint
// using the OAuth2 client credentials grant. The zero value is not usable;
// at least Endpoint, Username and Password must be set. A TokenSource is
// safe for concurrent use.
type TokenSource struct {
	// Endpoint is the full token URL, for example
	// https://vault.example.com/sso/token.
	Endpoint string
	Username string
	Password string

	// Client issues the token request. Defaults to http.DefaultClient.
	Client *http.Client

	// TTL caches tokens without an expires_in field or a readable JWT exp
	// claim. Defaults to 15 minutes.
	TTL time.Duration

	// Margin expires cached tokens early. Defaults to 30 seconds.
	Margin time.Duration

	mu      sync.Mutex
	token   string
	expires time.Time
	now     func() time.Time
}

// TokenRequestError is a non-2xx reply from the token endpoint.
type TokenRequestError struct {
	Status int
	Body   string
}

func (e *TokenRequestError) Error() string {
	return fmt.Sprintf("auth: token endpoint returned %d: %s", e.Status, strings.TrimSpace(e.Body))
}

// Temporary reports whether the failure is worth retrying.
func (e *TokenRequestError) Temporary() bool {
	return e.Status >= 500
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns a valid bearer token, fetching a new one when the cache is
// empty or past its expiry.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" && s.clock().Before(s.expires) {
		return s.token, nil
	}
	token, expires, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}
	s.token, s.expires = token, expires
	return token, nil
}

// Invalidate drops the cached token. The next Token call fetches a fresh
// one.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expires = time.Time{}
}

func (s *TokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	if s.Endpoint == "" {
		return "", time.Time{}, errors.New("auth: token endpoint not configured")
	}
	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(s.Username, s.Password)

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: requesting token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBody))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, &TokenRequestError{Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("auth: decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, errors.New("auth: token response has no access_token")
	}
	return tr.AccessToken, s.expiry(tr), nil
}

// expiry picks the cache deadline for a freshly fetched token: the
// expires_in field when present, otherwise the token's own exp claim,
// otherwise the fallback TTL. The margin is subtracted, with a one minute
// floor so a short-lived token is still reused within a burst of requests.
func (s *TokenSource) expiry(tr tokenResponse) time.Time {
	now := s.clock()
	var expires time.Time
	switch {
	case tr.ExpiresIn > 0:
		expires = now.Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		if exp, ok := jwtExpiry(tr.AccessToken); ok {
			expires = exp
		} else {
			ttl := s.TTL
			if ttl <= 0 {
				ttl = defaultTokenTTL
			}
			expires = now.Add(ttl)
		}
	}
	margin := s.Margin
	if margin <= 0 {
		margin = defaultMargin
	}
	expires = expires.Add(-margin)
	if floor := now.Add(time.Minute); expires.Before(floor) {
		expires = floor
	}
	return expires
}

func (s *TokenSource) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// jwtExpiry extracts the exp claim from a JWT access token without
// verifying its signature. The token is only inspected to size the cache
// window; the service remains the authority on validity.
func jwtExpiry(raw string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
