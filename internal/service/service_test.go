package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/social-sync/internal/auth"
	"github.com/sakif/social-sync/internal/logging"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/provider"
	"github.com/sakif/social-sync/internal/repository/sqlite"
)

// =========================================================================
// TEST ENVIRONMENT
// =========================================================================
//
// Most service tests run against the real SQLite store in ":memory:" mode.
// It's fast, and it checks the SQL and the business rules together. Tests
// that need a failing dependency swap in one of the fakes from fakes_test.go.

type testEnv struct {
	db          *sqlite.DB
	providers   *provider.Registry
	auth        *AuthService
	connections *ConnectionService
	following   *FollowingService
	sync        *SyncService
	export      *ExportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Platforms().Seed(context.Background(), model.DefaultPlatforms))

	codes := make([]string, 0, len(model.DefaultPlatforms))
	for _, p := range model.DefaultPlatforms {
		codes = append(codes, p.Code)
	}
	providers := provider.NewMockRegistry("http://localhost:8080", codes...)
	logger := logging.Discard()

	env := &testEnv{
		db:        db,
		providers: providers,
		auth: NewAuthService(db.Users(), db.Platforms(), db.Connections(),
			auth.NewPasswordServiceForTest(bcrypt.MinCost), logger),
		connections: NewConnectionService(db.Users(), db.Platforms(), db.Connections(), providers, logger),
		following:   NewFollowingService(db.Platforms(), db.Following(), logger),
		sync: NewSyncService(db.Platforms(), db.Connections(), db.Following(), db.SyncHistory(),
			providers, SyncOptions{}, logger),
		export: NewExportService(db.Platforms(), db.Following(), logger),
	}
	// Registered after db.Close, so it runs first.
	t.Cleanup(env.sync.Close)
	return env
}

func (e *testEnv) register(t *testing.T, username string) *model.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return u
}

func (e *testEnv) platformID(t *testing.T, code string) int64 {
	t.Helper()
	p, err := e.db.Platforms().GetByCode(context.Background(), code)
	require.NoError(t, err)
	return p.ID
}

func (e *testEnv) connect(t *testing.T, userID int64, codes ...string) {
	t.Helper()
	for _, code := range codes {
		_, err := e.connections.Connect(context.Background(), userID, e.platformID(t, code))
		require.NoError(t, err)
	}
}
