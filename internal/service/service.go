// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, not *sqlite.DB, so tests can hand
// them either the real in-memory store or a small fake that injects errors.
// They return *apperror.AppError for anything the caller should see and wrap
// everything else with fmt.Errorf("service/...: %w").
package service

import (
	"context"
	"fmt"

	"github.com/sakif/social-sync/internal/model"
	"github.com/sakif/social-sync/internal/repository"
)

// platformIndex loads the whole catalog once so list endpoints can embed
// platforms without a query per row.
func platformIndex(ctx context.Context, platforms repository.PlatformRepository) (map[int64]*model.Platform, error) {
	list, err := platforms.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading platform catalog: %w", err)
	}

	idx := make(map[int64]*model.Platform, len(list))
	for i := range list {
		idx[list[i].ID] = &list[i]
	}
	return idx, nil
}
