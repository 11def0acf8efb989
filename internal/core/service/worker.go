package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"searcharr/internal/config"
	"searcharr/internal/core/domain/models"
	"searcharr/internal/core/domain/ports"
)

// WorkerService runs one selection cycle: load state, fetch the wanted pools,
// cooldown-filter them, choose a pool by weight, pick one item uniformly,
// trigger its search, and persist the new timestamp only after the trigger is
// confirmed. One invocation, one search, no retries.
type WorkerService struct {
	cfg    *config.Config
	source ports.WantedSource
	state  ports.StateStore
	rng    *rand.Rand
	now    func() time.Time
	log    *slog.Logger
}

func NewWorkerService(cfg *config.Config, source ports.WantedSource, state ports.StateStore, rng *rand.Rand, log *slog.Logger) *WorkerService {
	return &WorkerService{
		cfg:    cfg,
		source: source,
		state:  state,
		rng:    rng,
		now:    time.Now,
		log:    log,
	}
}

// WithNow replaces the clock. Used by tests to pin timestamps.
func (s *WorkerService) WithNow(now func() time.Time) *WorkerService {
	s.now = now
	return s
}

// Run executes the selection cycle. Every returned error carries a models.Kind
// so the caller can map it to a distinct exit status.
func (s *WorkerService) Run(ctx context.Context) error {
	state, err := s.state.Load(ctx)
	if err != nil {
		return err
	}
	s.log.Debug("state loaded", "path", s.cfg.StatePath, "entries", len(state))

	missing, err := s.fetchPool(ctx, models.PoolMissing, s.cfg.MissingWeight)
	if err != nil {
		return models.E(models.KindFetch, err)
	}
	cutoff, err := s.fetchPool(ctx, models.PoolCutoffUnmet, s.cfg.CutoffUnmetWeight)
	if err != nil {
		return models.E(models.KindFetch, err)
	}

	now := s.now()
	scope := ScopeFunc(s.cfg.ScopeKey)
	eligibleMissing := FilterCooldown(missing, state, s.cfg.Cooldown, now, scope)
	eligibleCutoff := FilterCooldown(cutoff, state, s.cfg.Cooldown, now, scope)
	s.log.Debug("eligible after cooldown",
		"missing", len(eligibleMissing), "missing_fetched", len(missing),
		"cutoff_unmet", len(eligibleCutoff), "cutoff_unmet_fetched", len(cutoff))

	pool, label, err := ChoosePool(s.rng, s.cfg.MissingWeight, s.cfg.CutoffUnmetWeight, eligibleMissing, eligibleCutoff)
	if err != nil {
		return err
	}

	picked := PickOne(s.rng, pool)
	s.log.Info("selected item", "pool", string(label), "command", picked.Command.Name, "item", picked.Summary)

	result, err := s.source.TriggerSearch(ctx, picked)
	if err != nil {
		// State stays untouched so the item remains eligible next run.
		return models.E(models.KindTrigger, err)
	}

	next := MarkSearched(state, s.cfg.ScopeKey(picked.ContentKey), s.now())
	if err := s.state.Save(ctx, next); err != nil {
		return err
	}

	s.log.Info("triggered search", "command", picked.Command.Name, "command_id", result.ID, "status", result.Status)
	return nil
}

// fetchPool drains one wanted listing. A pool with weight 0 can never be
// selected, so its fetch is skipped entirely.
func (s *WorkerService) fetchPool(ctx context.Context, pool models.Pool, weight int) ([]models.Candidate, error) {
	if weight == 0 {
		s.log.Debug("skipping zero-weight pool", "pool", string(pool))
		return nil, nil
	}

	candidates, err := s.source.FetchPool(ctx, pool)
	if err != nil {
		return nil, err
	}
	s.log.Debug("fetched candidates", "pool", string(pool), "count", len(candidates))
	return candidates, nil
}
