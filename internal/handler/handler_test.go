package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakif/social-sync/internal/auth"
	"github.com/sakif/social-sync/internal/handler"
	"github.com/sakif/social-sync/internal/logging"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/provider"
	"github.com/sakif/social-sync/internal/repository/sqlite"
	"github.com/sakif/social-sync/internal/service"
)

// =========================================================================
// TEST HARNESS
// =========================================================================
//
// Handlers are called directly, without the router. Tests put the user ID
// and URL params on the request the way RequireAuth and chi would.

type harness struct {
	db       *sqlite.DB
	sessions *auth.Manager

	authSvc *service.AuthService
	syncSvc *service.SyncService

	auth        *handler.AuthHandler
	platforms   *handler.PlatformHandler
	connections *handler.ConnectionHandler
	following   *handler.FollowingHandler
	sync        *handler.SyncHandler
	export      *handler.ExportHandler
	health      *handler.HealthHandler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := logging.Discard()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Platforms().Seed(context.Background(), model.DefaultPlatforms))

	providers := provider.NewMockRegistry("http://localhost:8080", "twitter", "instagram", "facebook")

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789")
	require.NoError(t, err)
	sessions := auth.NewManager(auth.NewSessionStore(time.Hour, time.Hour, logger), tokens, false)

	authSvc := service.NewAuthService(db.Users(), db.Platforms(), db.Connections(),
		auth.NewPasswordServiceForTest(bcrypt.MinCost), logger)
	connSvc := service.NewConnectionService(db.Users(), db.Platforms(), db.Connections(), providers, logger)
	syncSvc := service.NewSyncService(db.Platforms(), db.Connections(), db.Following(), db.SyncHistory(),
		providers, service.SyncOptions{}, logger)
	t.Cleanup(syncSvc.Close)

	return &harness{
		db:          db,
		sessions:    sessions,
		authSvc:     authSvc,
		syncSvc:     syncSvc,
		auth:        handler.NewAuthHandler(authSvc, sessions, logger),
		platforms:   handler.NewPlatformHandler(db.Platforms(), logger),
		connections: handler.NewConnectionHandler(connSvc, logger),
		following:   handler.NewFollowingHandler(service.NewFollowingService(db.Platforms(), db.Following(), logger), logger),
		sync:        handler.NewSyncHandler(syncSvc, logger),
		export:      handler.NewExportHandler(service.NewExportService(db.Platforms(), db.Following(), logger), logger),
		health:      handler.NewHealthHandler(db, logger),
	}
}

func (h *harness) register(t *testing.T, username string) int64 {
	t.Helper()
	u, err := h.authSvc.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	return u.ID
}

func (h *harness) platformID(t *testing.T, code string) int64 {
	t.Helper()
	p, err := h.db.Platforms().GetByCode(context.Background(), code)
	require.NoError(t, err)
	return p.ID
}

// newRequest builds a request with an optional JSON body.
func newRequest(method, target string, body any) *http.Request {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		buf, _ := json.Marshal(b)
		r = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// asUser marks req as authenticated for userID.
func asUser(req *http.Request, userID int64) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

// withURLParam sets a chi route parameter on req.
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func serve(fn http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}
