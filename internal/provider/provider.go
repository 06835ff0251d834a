// Package provider abstracts the social networks a user can connect.
//
// Every network is reached through the same Provider interface: build an
// authorization URL, exchange a code for an oauth2.Token, refresh that token,
// and list the accounts the user follows. The only implementation today is
// Mock, which never touches the network and serves fixed following lists.
package provider

import (
	"context"
	"errors"
	"sort"

	"golang.org/x/oauth2"
)

var (
	// ErrUnsupported is returned by Registry.Get for an unknown platform code.
	ErrUnsupported = errors.New("provider: unsupported platform")

	// ErrNoAccessToken is returned by Following when the token is empty.
	ErrNoAccessToken = errors.New("provider: access token not set")

	// ErrNoRefreshToken is returned by Refresh when there is nothing to refresh with.
	ErrNoRefreshToken = errors.New("provider: refresh token not set")
)

// Account is one followed account as the provider reports it.
// It is stored verbatim as the following row's platformData.
type Account struct {
	Username          string `json:"username"`
	DisplayName       string `json:"displayName"`
	ProfilePictureURL string `json:"profilePictureUrl"`
}

// Provider is one social network's API surface.
type Provider interface {
	// Code is the platform code, e.g. "twitter".
	Code() string
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	Following(ctx context.Context, token *oauth2.Token) ([]Account, error)
}

// Registry looks providers up by platform code.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds a registry from the given providers. A later provider
// with the same code replaces an earlier one.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.Code()] = p
	}
	return r
}

// Get returns the provider for code or ErrUnsupported.
func (r *Registry) Get(code string) (Provider, error) {
	p, ok := r.providers[code]
	if !ok {
		return nil, ErrUnsupported
	}
	return p, nil
}

// Codes lists the registered platform codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.providers))
	for code := range r.providers {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
