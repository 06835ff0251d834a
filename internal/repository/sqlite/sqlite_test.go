package sqlite

import (
	"context"
	"testing"

	"github.com/sakif/social-sync/internal/model"
)

// newTestDB returns a fresh in-memory database with the platform catalog seeded.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Platforms().Seed(context.Background(), model.DefaultPlatforms); err != nil {
		t.Fatalf("failed to seed platforms: %v", err)
	}
	return db
}

// createTestUser inserts a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$notarealhash",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// platformID looks up a seeded platform by code.
func platformID(t *testing.T, db *DB, code string) int64 {
	t.Helper()
	p, err := db.Platforms().GetByCode(context.Background(), code)
	if err != nil {
		t.Fatalf("GetByCode(%q): %v", code, err)
	}
	return p.ID
}

func TestNew_MigrationsAreIdempotent(t *testing.T) {
	db := newTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate() error = %v", err)
	}
}

func TestNew_ForeignKeysEnforced(t *testing.T) {
	db := newTestDB(t)

	err := db.Connections().Create(context.Background(), &model.PlatformConnection{
		UserID:     9999,
		PlatformID: 1,
	})
	if err == nil {
		t.Fatal("Create() with unknown user_id should fail with foreign_keys on")
	}
}

func TestPing(t *testing.T) {
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() on open db error = %v", err)
	}

	db.Close()
	if err := db.Ping(context.Background()); err == nil {
		t.Error("Ping() on closed db should fail")
	}
}
