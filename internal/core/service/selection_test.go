package service_test

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"searcharr/internal/core/domain/models"
	"searcharr/internal/core/service"
)

func newRng(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func candidates(keys ...string) []models.Candidate {
	out := make([]models.Candidate, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.Candidate{ContentKey: k})
	}
	return out
}

func identityScope(key string) string { return key }

func TestFilterCooldown(t *testing.T) {
	t0 := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	cooldown := 24 * time.Hour
	state := map[string]time.Time{"movie:1": t0}
	pool := candidates("movie:1", "movie:2")

	tests := []struct {
		name string
		now  time.Time
		want []string
	}{
		{"inside window", t0.Add(cooldown - time.Second), []string{"movie:2"}},
		{"exactly at boundary", t0.Add(cooldown), []string{"movie:1", "movie:2"}},
		{"past window", t0.Add(cooldown + time.Hour), []string{"movie:1", "movie:2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.FilterCooldown(pool, state, cooldown, tt.now, identityScope)
			keys := make([]string, 0, len(got))
			for _, c := range got {
				keys = append(keys, c.ContentKey)
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestFilterCooldown_ZeroCooldownPassesEverything(t *testing.T) {
	now := time.Now()
	state := map[string]time.Time{"movie:1": now}
	pool := candidates("movie:1", "movie:2")

	got := service.FilterCooldown(pool, state, 0, now, identityScope)
	assert.Len(t, got, 2)
}

func TestFilterCooldown_UsesScopedKeys(t *testing.T) {
	now := time.Now()
	scope := func(key string) string { return "radarr:http://a:7878:" + key }
	// Entry for the same content key on a different server must not block.
	state := map[string]time.Time{"radarr:http://b:7878:movie:1": now}
	pool := candidates("movie:1")

	got := service.FilterCooldown(pool, state, 24*time.Hour, now, scope)
	assert.Len(t, got, 1)
}

func TestFilterCooldown_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		cooldown := time.Duration(rapid.Int64Range(1, int64(30*24*time.Hour)).Draw(t, "cooldown"))
		elapsed := time.Duration(rapid.Int64Range(0, int64(60*24*time.Hour)).Draw(t, "elapsed"))
		tracked := rapid.Bool().Draw(t, "tracked")

		state := map[string]time.Time{}
		if tracked {
			state["k"] = base
		}
		now := base.Add(elapsed)

		got := service.FilterCooldown(candidates("k"), state, cooldown, now, identityScope)

		wantIncluded := !tracked || elapsed >= cooldown
		if wantIncluded {
			require.Len(t, got, 1)
		} else {
			require.Empty(t, got)
		}
	})
}

func TestFilterCooldown_PreservesOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(t, "n")
		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		cooldown := 24 * time.Hour

		pool := make([]models.Candidate, n)
		state := map[string]time.Time{}
		for i := range pool {
			key := fmt.Sprintf("k%d", i)
			pool[i] = models.Candidate{ContentKey: key}
			if rapid.Bool().Draw(t, fmt.Sprintf("blocked%d", i)) {
				state[key] = base
			}
		}
		now := base.Add(time.Hour)

		got := service.FilterCooldown(pool, state, cooldown, now, identityScope)

		// Output is a subsequence of the input.
		i := 0
		for _, c := range got {
			for i < len(pool) && pool[i].ContentKey != c.ContentKey {
				i++
			}
			require.Less(t, i, len(pool), "candidate %s out of order", c.ContentKey)
			i++
		}
	})
}

func TestChoosePool_BothWeightsZero(t *testing.T) {
	_, _, err := service.ChoosePool(newRng(1), 0, 0, candidates("a"), candidates("b"))
	require.Error(t, err)
	assert.Equal(t, models.KindConfig, models.KindOf(err))
}

func TestChoosePool_FallbackToSecondary(t *testing.T) {
	// Whatever the coin says, the empty missing pool must fall through to the
	// non-empty cutoff pool since its weight is non-zero.
	for seed := uint64(0); seed < 50; seed++ {
		pool, label, err := service.ChoosePool(newRng(seed), 100, 50, nil, candidates("b"))
		require.NoError(t, err)
		require.Equal(t, models.PoolCutoffUnmet, label)
		require.Len(t, pool, 1)
	}
}

func TestChoosePool_ZeroWeightPoolNeverUsedAsFallback(t *testing.T) {
	// Weight 0 means "never use this pool", even when it is the only one with
	// candidates left.
	for seed := uint64(0); seed < 50; seed++ {
		_, _, err := service.ChoosePool(newRng(seed), 100, 0, nil, candidates("b"))
		require.Error(t, err)
		require.Equal(t, models.KindNoEligibleItems, models.KindOf(err))
	}
}

func TestChoosePool_BothEmpty(t *testing.T) {
	_, _, err := service.ChoosePool(newRng(1), 50, 50, nil, nil)
	require.Error(t, err)
	assert.Equal(t, models.KindNoEligibleItems, models.KindOf(err))
}

func TestChoosePool_WeightedConvergence(t *testing.T) {
	const trials = 20000
	missing := candidates("m")
	cutoff := candidates("c")

	for _, seed := range []uint64{1, 42, 12345} {
		rng := newRng(seed)
		picked := 0
		for i := 0; i < trials; i++ {
			_, label, err := service.ChoosePool(rng, 3, 1, missing, cutoff)
			require.NoError(t, err)
			if label == models.PoolMissing {
				picked++
			}
		}
		freq := float64(picked) / trials
		assert.InDelta(t, 0.75, freq, 0.02, "seed %d", seed)
	}
}

func TestChoosePool_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mw := rapid.IntRange(0, 100).Draw(t, "missingWeight")
		cw := rapid.IntRange(0, 100).Draw(t, "cutoffWeight")
		missing := candidates(rapid.SliceOfN(rapid.StringMatching(`m[0-9]{1,3}`), 0, 10).Draw(t, "missing")...)
		cutoff := candidates(rapid.SliceOfN(rapid.StringMatching(`c[0-9]{1,3}`), 0, 10).Draw(t, "cutoff")...)
		rng := newRng(rapid.Uint64().Draw(t, "seed"))

		pool, label, err := service.ChoosePool(rng, mw, cw, missing, cutoff)

		if mw == 0 && cw == 0 {
			require.Equal(t, models.KindConfig, models.KindOf(err))
			return
		}

		usable := (mw > 0 && len(missing) > 0) || (cw > 0 && len(cutoff) > 0)
		if !usable {
			require.Equal(t, models.KindNoEligibleItems, models.KindOf(err))
			return
		}

		// A usable pool exists: the selector must return one, never an empty
		// pool, and never a pool whose weight is zero.
		require.NoError(t, err)
		require.NotEmpty(t, pool)
		switch label {
		case models.PoolMissing:
			require.Positive(t, mw)
		case models.PoolCutoffUnmet:
			require.Positive(t, cw)
		default:
			t.Fatalf("unexpected pool label %q", label)
		}
	})
}

func TestPickOne_Uniform(t *testing.T) {
	pool := candidates("a", "b", "c", "d")
	counts := map[string]int{}
	rng := newRng(7)

	const trials = 40000
	for i := 0; i < trials; i++ {
		counts[service.PickOne(rng, pool).ContentKey]++
	}

	for _, key := range []string{"a", "b", "c", "d"} {
		assert.InDelta(t, 0.25, float64(counts[key])/trials, 0.02, "key %s", key)
	}
}

func TestPickOne_DeterministicWithSeed(t *testing.T) {
	pool := candidates("a", "b", "c", "d", "e")
	first := service.PickOne(newRng(99), pool)
	second := service.PickOne(newRng(99), pool)
	assert.Equal(t, first.ContentKey, second.ContentKey)
}

func TestMarkSearched_Pure(t *testing.T) {
	now := time.Now().UTC()
	before := map[string]time.Time{"old": now.Add(-time.Hour)}

	after := service.MarkSearched(before, "new", now)

	require.Len(t, before, 1, "input mapping must not be mutated")
	require.Len(t, after, 2)
	assert.True(t, after["new"].Equal(now))
	assert.True(t, after["old"].Equal(before["old"]))
}

func TestMarkSearched_NilState(t *testing.T) {
	now := time.Now().UTC()
	after := service.MarkSearched(nil, "k", now)
	require.Len(t, after, 1)
	assert.True(t, after["k"].Equal(now))
}
