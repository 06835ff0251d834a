package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/provider"
	"github.com/sakif/social-sync/internal/repository"
)

var errBoom = errors.New("boom")

// =========================================================================
// FAKE REPOSITORIES
// =========================================================================
//
// Hand-written fakes that wrap a real repository and fail on demand.
// Embedding the interface means only the overridden methods change.

// failingFollowing fails Create after `after` successful inserts.
type failingFollowing struct {
	repository.FollowingRepository
	mu    sync.Mutex
	after int
	calls int
}

func (f *failingFollowing) Create(ctx context.Context, row *model.Following) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls > f.after
	f.mu.Unlock()

	if fail {
		return errBoom
	}
	return f.FollowingRepository.Create(ctx, row)
}

// staticPlatforms serves a fixed catalog, which lets a test reference a
// platform the database does not know about.
type staticPlatforms struct {
	repository.PlatformRepository
	list []model.Platform
}

func (s staticPlatforms) List(context.Context) ([]model.Platform, error) {
	out := make([]model.Platform, len(s.list))
	copy(out, s.list)
	return out, nil
}

func (s staticPlatforms) GetByID(_ context.Context, id int64) (*model.Platform, error) {
	for _, p := range s.list {
		if p.ID == id {
			p := p
			return &p, nil
		}
	}
	return nil, apperror.NotFound("platform", id)
}

// brokenUsers fails every lookup with a non-NotFound error.
type brokenUsers struct {
	repository.UserRepository
}

func (brokenUsers) GetByUsername(context.Context, string) (*model.User, error) { return nil, errBoom }
func (brokenUsers) GetByEmail(context.Context, string) (*model.User, error) { return nil, errBoom }

// =========================================================================
// FAKE PROVIDERS
// =========================================================================

// scriptedProvider returns canned accounts, or an error, for one code.
type scriptedProvider struct {
	code       string
	accounts   []provider.Account
	err        error
	refreshErr error
	// onRefresh runs inside Refresh, before the answer is returned.
	onRefresh func()
}

func (p *scriptedProvider) Code() string { return p.code }
func (p *scriptedProvider) AuthURL(s string) string { return "https://example.com/auth?state=" + s }

func (p *scriptedProvider) Exchange(context.Context, string) (*oauth2.Token, error) {
	return &oauth2.Token{
		AccessToken:  "access-" + p.code,
		RefreshToken: "refresh-" + p.code,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (p *scriptedProvider) Refresh(context.Context, string) (*oauth2.Token, error) {
	if p.onRefresh != nil {
		p.onRefresh()
	}
	if p.refreshErr != nil {
		return nil, p.refreshErr
	}
	return &oauth2.Token{
		AccessToken:  "refreshed-" + p.code,
		RefreshToken: "refresh2-" + p.code,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (p *scriptedProvider) Following(context.Context, *oauth2.Token) ([]provider.Account, error) {
	return p.accounts, p.err
}
