package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rs/xid"

	"github.com/sakif/social-sync/internal/apperror"
	"github.com/sakif/social-sync/internal/logging"
	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/provider"
	"github.com/sakif/social-sync/internal/repository"
)

// ConnectionService links users to platforms.
type ConnectionService struct {
	users       repository.UserRepository
	platforms   repository.PlatformRepository
	connections repository.ConnectionRepository
	providers   *provider.Registry
	logger      *slog.Logger
}

func NewConnectionService(
	users repository.UserRepository,
	platforms repository.PlatformRepository,
	connections repository.ConnectionRepository,
	providers *provider.Registry,
	logger *slog.Logger,
) *ConnectionService {
	return &ConnectionService{
		users:       users,
		platforms:   platforms,
		connections: connections,
		providers:   providers,
		logger:      logger,
	}
}

// List returns the user's connections with their platform embedded.
func (s *ConnectionService) List(ctx context.Context, userID int64) ([]model.PlatformConnection, error) {
	conns, err := s.connections.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/connection: listing for user %d: %w", userID, err)
	}

	idx, err := platformIndex(ctx, s.platforms)
	if err != nil {
		return nil, fmt.Errorf("service/connection: %w", err)
	}
	for i := range conns {
		conns[i].Platform = idx[conns[i].PlatformID]
	}
	return conns, nil
}

// Connect runs the (mock) OAuth exchange for the platform and stores the
// resulting tokens. Connecting an already connected platform issues fresh
// tokens on the same row.
func (s *ConnectionService) Connect(ctx context.Context, userID, platformID int64) (*model.PlatformConnection, error) {
	platform, p, err := s.lookup(ctx, platformID)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/connection: fetching user %d: %w", userID, err)
	}

	// The mock provider accepts any non-empty authorization code.
	token, err := p.Exchange(ctx, xid.New().String())
	if err != nil {
		return nil, fmt.Errorf("service/connection: exchanging code for %s: %w", platform.Code, err)
	}

	platformUsername := fmt.Sprintf("%s_on_%s", user.Username, platform.Code)
	apply := func(c *model.PlatformConnection) {
		expiry := token.Expiry.UTC()
		c.Connected = true
		c.Status = model.ConnectionConnected
		c.AccessToken = &token.AccessToken
		c.RefreshToken = &token.RefreshToken
		c.TokenExpiry = &expiry
		c.PlatformUsername = &platformUsername
	}

	conn, err := s.connections.GetByUserAndPlatform(ctx, userID, platformID)
	switch {
	case err == nil:
		apply(conn)
		err = s.connections.Update(ctx, conn)
	case errors.Is(err, apperror.ErrNotFound):
		conn = &model.PlatformConnection{UserID: userID, PlatformID: platformID}
		apply(conn)
		err = s.connections.Create(ctx, conn)
	}
	if err != nil {
		return nil, fmt.Errorf("service/connection: saving %s connection for user %d: %w", platform.Code, userID, err)
	}

	s.logger.Info("platform connected",
		slog.Int64("userID", userID),
		slog.String("platform", platform.Code),
		slog.Time("tokenExpiry", token.Expiry),
	)

	conn.Platform = platform
	return conn, nil
}

// Disconnect clears the stored tokens. The row stays so the dashboard keeps
// showing the platform as "disconnected".
func (s *ConnectionService) Disconnect(ctx context.Context, userID, platformID int64) (*model.PlatformConnection, error) {
	conn, err := s.connections.GetByUserAndPlatform(ctx, userID, platformID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("connection", platformID)
		}
		return nil, fmt.Errorf("service/connection: %w", err)
	}

	conn.Connected = false
	conn.Status = model.ConnectionDisconnected
	conn.AccessToken = nil
	conn.RefreshToken = nil
	conn.TokenExpiry = nil

	if err := s.connections.Update(ctx, conn); err != nil {
		return nil, fmt.Errorf("service/connection: disconnecting %d: %w", conn.ID, err)
	}

	platform, err := s.platforms.GetByID(ctx, platformID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/connection: %w", err)
	}
	conn.Platform = platform

	s.logger.Info("platform disconnected", slog.Int64("userID", userID), slog.Int64("platformID", platformID))
	return conn, nil
}

// AuthorizeURL returns the provider's authorization URL and the random state
// embedded in it.
func (s *ConnectionService) AuthorizeURL(ctx context.Context, platformID int64) (url, state string, err error) {
	_, p, err := s.lookup(ctx, platformID)
	if err != nil {
		return "", "", err
	}

	state = xid.New().String()
	return p.AuthURL(state), state, nil
}

// lookup resolves an enabled platform and its provider.
func (s *ConnectionService) lookup(ctx context.Context, platformID int64) (*model.Platform, provider.Provider, error) {
	platform, err := s.platforms.GetByID(ctx, platformID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("service/connection: fetching platform %d: %w", platformID, err)
	}
	if !platform.Enabled {
		return nil, nil, apperror.ValidationFailed("platformId", fmt.Sprintf("%s is not available", platform.Name))
	}

	p, err := s.providers.Get(platform.Code)
	if err != nil {
		return nil, nil, apperror.ValidationFailed("platformId", "Unsupported platform: "+platform.Code)
	}
	return platform, p, nil
}

// RefreshToken trades the connection's refresh token for a new token pair.
// When the provider refuses, the connection is marked status=error and the
// error is returned.
func (s *ConnectionService) RefreshToken(ctx context.Context, conn model.PlatformConnection) error {
	platform, err := s.platforms.GetByID(ctx, conn.PlatformID)
	if err != nil {
		return fmt.Errorf("service/connection: fetching platform %d: %w", conn.PlatformID, err)
	}

	p, err := s.providers.Get(platform.Code)
	if err != nil {
		return s.markError(ctx, conn, fmt.Errorf("service/connection: %s: %w", platform.Code, err))
	}

	refresh := ""
	if conn.RefreshToken != nil {
		refresh = *conn.RefreshToken
	}
	token, err := p.Refresh(ctx, refresh)
	if err != nil {
		return s.markError(ctx, conn, fmt.Errorf("service/connection: refreshing %s token: %w", platform.Code, err))
	}

	// A disconnect that happened meanwhile wins; the new tokens are dropped.
	saved, err := s.connections.UpdateTokens(ctx, conn.ID, token.AccessToken, token.RefreshToken, token.Expiry)
	if err != nil {
		return fmt.Errorf("service/connection: saving refreshed token: %w", err)
	}
	if !saved {
		s.logger.Debug("connection disconnected during refresh", slog.Int64("connectionID", conn.ID))
		return nil
	}

	s.logger.Debug("token refreshed",
		slog.Int64("connectionID", conn.ID),
		slog.String("platform", platform.Code),
		slog.String("accessToken", logging.MaskToken(token.AccessToken)),
	)
	return nil
}

// markError flags conn as status=error and returns cause. A row the user has
// disconnected keeps its status. The write must land even if ctx was
// cancelled halfway through.
func (s *ConnectionService) markError(ctx context.Context, conn model.PlatformConnection, cause error) error {
	if _, err := s.connections.MarkError(context.WithoutCancel(ctx), conn.ID); err != nil {
		s.logger.Error("failed to mark connection as errored",
			slog.Int64("connectionID", conn.ID),
			slog.String("error", err.Error()),
		)
	}
	return cause
}
