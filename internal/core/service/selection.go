package service

import (
	"maps"
	"math/rand/v2"
	"time"

	"searcharr/internal/core/domain/models"
)

// ScopeFunc derives the persisted state key for a candidate's content key.
type ScopeFunc func(contentKey string) string

// FilterCooldown returns the candidates whose scoped key has no recorded
// search, or whose last search happened at least cooldown ago. Input order is
// preserved. A non-positive cooldown disables filtering.
func FilterCooldown(candidates []models.Candidate, state map[string]time.Time, cooldown time.Duration, now time.Time, scope ScopeFunc) []models.Candidate {
	if cooldown <= 0 {
		return candidates
	}

	eligible := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		last, ok := state[scope(c.ContentKey)]
		if !ok || now.Sub(last) >= cooldown {
			eligible = append(eligible, c)
		}
	}
	return eligible
}

// ChoosePool draws the primary pool with probability proportional to its
// weight and returns it if non-empty. An empty primary falls back to the other
// pool exactly once, and only when that pool's weight is non-zero: weight 0
// means "never use this pool", fallback included. When neither branch yields
// candidates the run is a no-action outcome, not a failure.
func ChoosePool(rng *rand.Rand, missingWeight, cutoffWeight int, missing, cutoff []models.Candidate) ([]models.Candidate, models.Pool, error) {
	if missingWeight < 0 || cutoffWeight < 0 {
		return nil, "", models.Errorf(models.KindConfig, "pool weights must be non-negative")
	}
	if missingWeight == 0 && cutoffWeight == 0 {
		return nil, "", models.Errorf(models.KindConfig, "both pool weights are zero")
	}

	type side struct {
		pool   []models.Candidate
		label  models.Pool
		weight int
	}
	primary := side{missing, models.PoolMissing, missingWeight}
	secondary := side{cutoff, models.PoolCutoffUnmet, cutoffWeight}

	// A zero weight yields probability 0 or 1, so the degenerate case needs no
	// special handling: rng.Float64() is in [0, 1) and can never be below 0.
	missingProbability := float64(missingWeight) / float64(missingWeight+cutoffWeight)
	if rng.Float64() >= missingProbability {
		primary, secondary = secondary, primary
	}

	if len(primary.pool) > 0 {
		return primary.pool, primary.label, nil
	}
	if secondary.weight > 0 && len(secondary.pool) > 0 {
		return secondary.pool, secondary.label, nil
	}
	return nil, "", models.Errorf(models.KindNoEligibleItems, "no eligible candidates after cooldown filtering")
}

// PickOne samples one candidate uniformly. The pool must be non-empty.
func PickOne(rng *rand.Rand, pool []models.Candidate) models.Candidate {
	return pool[rng.IntN(len(pool))]
}

// MarkSearched returns a copy of state with key recorded at now. The input is
// left untouched so a failed save never observes a half-applied update.
func MarkSearched(state map[string]time.Time, key string, now time.Time) map[string]time.Time {
	next := maps.Clone(state)
	if next == nil {
		next = make(map[string]time.Time, 1)
	}
	next[key] = now
	return next
}
