package transport

import "net/http"

// Authenticator applies authentication to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
}

// NoAuth sends requests unauthenticated.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (NoAuth) Apply(_ *http.Request) {}

// BearerAuth sends the token in the Authorization header.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a BearerAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

// HeaderAuth sends the token verbatim in a custom header.
type HeaderAuth struct {
	Header string
	Token  string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a HeaderAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set(a.Header, a.Token)
	}
}
