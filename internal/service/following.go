package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/repository"
)

// FollowingService reads the aggregated following table.
type FollowingService struct {
	platforms repository.PlatformRepository
	following repository.FollowingRepository
	logger    *slog.Logger
}

func NewFollowingService(
	platforms repository.PlatformRepository,
	following repository.FollowingRepository,
	logger *slog.Logger,
) *FollowingService {
	return &FollowingService{platforms: platforms, following: following, logger: logger}
}

// List returns the user's following rows, optionally narrowed by platform
// code and a search string, each with its platform embedded.
func (s *FollowingService) List(ctx context.Context, userID int64, filter model.FollowingFilter) ([]model.Following, error) {
	rows, err := s.following.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("service/following: listing for user %d: %w", userID, err)
	}

	idx, err := platformIndex(ctx, s.platforms)
	if err != nil {
		return nil, fmt.Errorf("service/following: %w", err)
	}
	for i := range rows {
		rows[i].Platform = idx[rows[i].PlatformID]
	}
	return rows, nil
}
