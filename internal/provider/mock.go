package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// TokenLifetime is how long a mock access token stays valid.
const TokenLifetime = time.Hour

const placeholderPicture = "https://via.placeholder.com/150"

// endpoints are the real authorization servers, so AuthURL output looks
// like what a production client would redirect to.
var endpoints = map[string]struct {
	endpoint oauth2.Endpoint
	scopes   []string
}{
	"twitter": {
		oauth2.Endpoint{
			AuthURL:  "https://twitter.com/i/oauth2/authorize",
			TokenURL: "https://api.twitter.com/2/oauth2/token",
		},
		[]string{"tweet.read", "users.read", "follows.read"},
	},
	"instagram": {
		oauth2.Endpoint{
			AuthURL:  "https://api.instagram.com/oauth/authorize",
			TokenURL: "https://api.instagram.com/oauth/access_token",
		},
		[]string{"user_profile,user_follows"},
	},
	"facebook": {
		oauth2.Endpoint{
			AuthURL:  "https://www.facebook.com/v12.0/dialog/oauth",
			TokenURL: "https://graph.facebook.com/v12.0/oauth/access_token",
		},
		[]string{"public_profile,user_friends"},
	},
	"linkedin": {
		oauth2.Endpoint{
			AuthURL:  "https://www.linkedin.com/oauth/v2/authorization",
			TokenURL: "https://www.linkedin.com/oauth/v2/accessToken",
		},
		[]string{"r_liteprofile"},
	},
	"tiktok": {
		oauth2.Endpoint{
			AuthURL:  "https://www.tiktok.com/v2/auth/authorize/",
			TokenURL: "https://open.tiktokapis.com/v2/oauth/token/",
		},
		[]string{"user.info.basic"},
	},
	"youtube": {
		oauth2.Endpoint{
			AuthURL:  "https://accounts.google.com/o/oauth2/auth",
			TokenURL: "https://oauth2.googleapis.com/token",
		},
		[]string{"https://www.googleapis.com/auth/youtube.readonly"},
	},
}

// datasets are the fixed following lists. Platforms without an entry
// follow nobody.
var datasets = map[string][]Account{
	"twitter": {
		{Username: "elonmusk", DisplayName: "Elon Musk", ProfilePictureURL: placeholderPicture},
		{Username: "BillGates", DisplayName: "Bill Gates", ProfilePictureURL: placeholderPicture},
	},
	"instagram": {
		{Username: "zuck", DisplayName: "Mark Zuckerberg", ProfilePictureURL: placeholderPicture},
		{Username: "natgeo", DisplayName: "National Geographic", ProfilePictureURL: placeholderPicture},
	},
	"facebook": {
		{Username: "meta", DisplayName: "Meta", ProfilePictureURL: placeholderPicture},
		{Username: "cnn", DisplayName: "CNN", ProfilePictureURL: placeholderPicture},
	},
}

// Mock is an offline Provider. Tokens are generated locally and Following
// returns a copy of the platform's dataset.
type Mock struct {
	code   string
	config *oauth2.Config
	now    func() time.Time
}

// NewMock creates a mock provider for code. redirectBase is the app's
// public URL; the redirect URI is <redirectBase>/auth/callback/<code>.
func NewMock(code, redirectBase string) *Mock {
	cfg := &oauth2.Config{
		ClientID:    "social-sync-" + code,
		RedirectURL: strings.TrimRight(redirectBase, "/") + "/auth/callback/" + code,
	}
	if e, ok := endpoints[code]; ok {
		cfg.Endpoint = e.endpoint
		cfg.Scopes = e.scopes
	}
	return &Mock{code: code, config: cfg, now: time.Now}
}

// NewMockRegistry registers a mock provider for each code.
func NewMockRegistry(redirectBase string, codes ...string) *Registry {
	providers := make([]Provider, 0, len(codes))
	for _, code := range codes {
		providers = append(providers, NewMock(code, redirectBase))
	}
	return NewRegistry(providers...)
}

func (m *Mock) Code() string { return m.code }

// AuthURL returns the authorization-code URL for state.
func (m *Mock) AuthURL(state string) string {
	return m.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange issues a fresh token pair. The authorization code is not checked
// beyond being non-empty.
func (m *Mock) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, fmt.Errorf("provider: %s: empty authorization code", m.code)
	}
	return m.issue(), nil
}

// Refresh trades a refresh token for a new token pair.
func (m *Mock) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, ErrNoRefreshToken
	}
	return m.issue(), nil
}

// Following returns the accounts followed on this platform.
func (m *Mock) Following(ctx context.Context, token *oauth2.Token) ([]Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if token == nil || token.AccessToken == "" {
		return nil, ErrNoAccessToken
	}

	src := datasets[m.code]
	out := make([]Account, len(src))
	copy(out, src)
	return out, nil
}

func (m *Mock) issue() *oauth2.Token {
	now := m.now()
	return &oauth2.Token{
		AccessToken:  fmt.Sprintf("mock-token-%s-%d", m.code, now.UnixNano()),
		RefreshToken: fmt.Sprintf("mock-refresh-%s-%d", m.code, now.UnixNano()),
		TokenType:    "Bearer",
		Expiry:       now.Add(TokenLifetime),
	}
}
