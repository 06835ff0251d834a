package provider

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

var allCodes = []string{"twitter", "instagram", "facebook", "linkedin", "tiktok", "youtube"}

func TestRegistry_Get(t *testing.T) {
	r := NewMockRegistry("http://localhost:8080", allCodes...)

	assert.Equal(t, []string{"facebook", "instagram", "linkedin", "tiktok", "twitter", "youtube"}, r.Codes())

	p, err := r.Get("twitter")
	require.NoError(t, err)
	assert.Equal(t, "twitter", p.Code())

	_, err = r.Get("myspace")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestMock_AuthURL(t *testing.T) {
	m := NewMock("twitter", "http://localhost:8080/")

	raw := m.AuthURL("state-123")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "twitter.com", u.Host)
	assert.Equal(t, "/i/oauth2/authorize", u.Path)

	q := u.Query()
	assert.Equal(t, "state-123", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "social-sync-twitter", q.Get("client_id"))
	assert.Equal(t, "http://localhost:8080/auth/callback/twitter", q.Get("redirect_uri"))
	assert.Equal(t, "tweet.read users.read follows.read", q.Get("scope"))
}

func TestMock_Exchange(t *testing.T) {
	m := NewMock("instagram", "http://localhost:8080")
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	tok, err := m.Exchange(context.Background(), "auth-code")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(tok.AccessToken, "mock-token-instagram-"))
	assert.True(t, strings.HasPrefix(tok.RefreshToken, "mock-refresh-instagram-"))
	assert.Equal(t, "Bearer", tok.TokenType)
	assert.Equal(t, fixed.Add(TokenLifetime), tok.Expiry)

	_, err = m.Exchange(context.Background(), "")
	assert.Error(t, err)
}

func TestMock_Refresh(t *testing.T) {
	m := NewMock("facebook", "http://localhost:8080")

	tok, err := m.Refresh(context.Background(), "mock-refresh-facebook-1")
	require.NoError(t, err)
	assert.True(t, tok.Valid())

	_, err = m.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestMock_Following(t *testing.T) {
	tok := &oauth2.Token{AccessToken: "mock-token"}

	tests := []struct {
		code string
		want []string
	}{
		{"twitter", []string{"elonmusk", "BillGates"}},
		{"instagram", []string{"zuck", "natgeo"}},
		{"facebook", []string{"meta", "cnn"}},
		{"linkedin", nil},
		{"youtube", nil},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			accounts, err := NewMock(tt.code, "").Following(context.Background(), tok)
			require.NoError(t, err)

			var got []string
			for _, a := range accounts {
				got = append(got, a.Username)
				assert.Equal(t, placeholderPicture, a.ProfilePictureURL)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMock_FollowingReturnsCopy(t *testing.T) {
	m := NewMock("twitter", "")
	tok := &oauth2.Token{AccessToken: "x"}

	first, err := m.Following(context.Background(), tok)
	require.NoError(t, err)
	first[0].Username = "mutated"

	second, err := m.Following(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, "elonmusk", second[0].Username)
}

func TestMock_FollowingErrors(t *testing.T) {
	m := NewMock("twitter", "")

	_, err := m.Following(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoAccessToken)

	_, err = m.Following(context.Background(), &oauth2.Token{})
	assert.ErrorIs(t, err, ErrNoAccessToken)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Following(ctx, &oauth2.Token{AccessToken: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
