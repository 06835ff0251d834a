package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/model"
)

func TestPlatformSeed_ListsCatalogInOrder(t *testing.T) {
	db := newTestDB(t)

	platforms, err := db.Platforms().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(platforms) != len(model.DefaultPlatforms) {
		t.Fatalf("len(List()) = %d, want %d", len(platforms), len(model.DefaultPlatforms))
	}

	wantCodes := []string{"twitter", "instagram", "facebook", "linkedin", "tiktok", "youtube"}
	for i, code := range wantCodes {
		if platforms[i].Code != code {
			t.Errorf("platforms[%d].Code = %q, want %q", i, platforms[i].Code, code)
		}
		if !platforms[i].Enabled {
			t.Errorf("platforms[%d].Enabled = false, want true", i)
		}
	}
}

func TestPlatformSeed_Idempotent(t *testing.T) {
	db := newTestDB(t)

	// newTestDB already seeded once.
	if err := db.Platforms().Seed(context.Background(), model.DefaultPlatforms); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}

	platforms, err := db.Platforms().List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(platforms) != len(model.DefaultPlatforms) {
		t.Errorf("len(List()) = %d after reseed, want %d", len(platforms), len(model.DefaultPlatforms))
	}
}

func TestPlatformGetByID(t *testing.T) {
	db := newTestDB(t)
	id := platformID(t, db, "instagram")

	p, err := db.Platforms().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if p.Name != "Instagram" {
		t.Errorf("Name = %q, want %q", p.Name, "Instagram")
	}
	if p.Color != "#E1306C" {
		t.Errorf("Color = %q, want %q", p.Color, "#E1306C")
	}
}

func TestPlatformLookups_NotFound(t *testing.T) {
	db := newTestDB(t)

	if _, err := db.Platforms().GetByID(context.Background(), 999); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
	if _, err := db.Platforms().GetByCode(context.Background(), "myspace"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByCode() error = %v, want ErrNotFound", err)
	}
}
