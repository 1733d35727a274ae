package auth

import "net/http"

// BasicTransport injects HTTP basic credentials into outgoing requests.
type BasicTransport struct {
	Username string
	Password string
	Base     http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *BasicTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.Username != "" || t.Password != "" {
		clone.SetBasicAuth(t.Username, t.Password)
	}
	return baseTransport(t.Base).RoundTrip(clone)
}

// BearerTransport injects a fixed bearer token.
type BearerTransport struct {
	Token string
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.Token != "" {
		clone.Header.Set("Authorization", "Bearer "+t.Token)
	}
	return baseTransport(t.Base).RoundTrip(clone)
}

// TokenTransport injects bearer tokens minted by a TokenSource. A 401
// response invalidates the cached token so the next attempt fetches a
// fresh one.
type TokenTransport struct {
	Source *TokenSource
	Base   http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *TokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	resp, err := baseTransport(t.Base).RoundTrip(clone)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.Source.Invalidate()
	}
	return resp, nil
}

func baseTransport(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
