package ports

import (
	"context"
	"time"

	"searcharr/internal/core/domain/models"
)

// WantedSource is one media server's view of searchable items. Each vendor
// dialect implements it; the core never branches on vendor identity.
type WantedSource interface {
	// FetchPool exhaustively drains the paged wanted listing for one pool.
	FetchPool(ctx context.Context, pool models.Pool) ([]models.Candidate, error)
	// TriggerSearch queues the search command for one candidate.
	TriggerSearch(ctx context.Context, candidate models.Candidate) (models.CommandResult, error)
}

// StateStore persists last-search timestamps keyed by scoped content key.
// Load and Save move the whole mapping; updates happen as pure functions in
// the core so the store stays free of decision logic.
type StateStore interface {
	Load(ctx context.Context) (map[string]time.Time, error)
	Save(ctx context.Context, state map[string]time.Time) error
}
