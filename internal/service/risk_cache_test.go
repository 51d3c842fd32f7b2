package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/careloop/scheduling-api/internal/models"
)

func assessmentAt(id string, ts time.Time) models.RiskAssessment {
	return models.RiskAssessment{
		AppointmentID: id,
		RiskScore:     0.42,
		RiskLevel:     models.RiskMedium,
		Timestamp:     ts,
	}
}

func TestRiskCacheHitWithinTTL(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	now := base
	cache := NewRiskAssessmentCache(5*time.Minute, nil)
	cache.now = func() time.Time { return now }

	cache.Put(assessmentAt("a1", base))

	now = base.Add(5*time.Minute - time.Second)
	got, ok := cache.Get("a1")
	require.True(t, ok)
	assert.Equal(t, "a1", got.AppointmentID)
}

func TestRiskCacheMissAfterTTL(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	now := base
	cache := NewRiskAssessmentCache(5*time.Minute, nil)
	cache.now = func() time.Time { return now }

	cache.Put(assessmentAt("a1", base))

	now = base.Add(5*time.Minute + time.Second)
	_, ok := cache.Get("a1")
	assert.False(t, ok)

	// Expiry on read does not remove the entry; the sweep owns that.
	assert.Equal(t, 1, cache.Len())
}

func TestRiskCacheMissForUnknownKey(t *testing.T) {
	cache := NewRiskAssessmentCache(5*time.Minute, nil)
	_, ok := cache.Get("missing")
	assert.False(t, ok)
}

func TestRiskCacheOverwrite(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	cache := NewRiskAssessmentCache(5*time.Minute, nil)
	cache.now = func() time.Time { return base }

	first := assessmentAt("a1", base)
	cache.Put(first)

	second := first
	second.RiskScore = 0.9
	second.RiskLevel = models.RiskHigh
	cache.Put(second)

	got, ok := cache.Get("a1")
	require.True(t, ok)
	assert.Equal(t, 0.9, got.RiskScore)
	assert.Equal(t, 1, cache.Len())
}

func TestRiskCacheDelete(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	cache := NewRiskAssessmentCache(5*time.Minute, nil)
	cache.now = func() time.Time { return base }

	cache.Put(assessmentAt("a1", base))
	cache.Delete("a1")

	_, ok := cache.Get("a1")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Len())
}

func TestRiskCacheSweepEvictsOnlyExpired(t *testing.T) {
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	now := base.Add(6 * time.Minute)
	cache := NewRiskAssessmentCache(5*time.Minute, nil)
	cache.now = func() time.Time { return now }

	cache.Put(assessmentAt("old", base))
	cache.Put(assessmentAt("fresh", base.Add(4*time.Minute)))

	evicted := cache.Sweep()

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, cache.Len())
	_, ok := cache.Get("fresh")
	assert.True(t, ok)
}

func TestRiskCacheSweepEmpty(t *testing.T) {
	cache := NewRiskAssessmentCache(5*time.Minute, nil)
	assert.Equal(t, 0, cache.Sweep())
}

func TestRiskCacheSweeperLifecycle(t *testing.T) {
	cache := NewRiskAssessmentCache(time.Minute, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cache.StartSweeper(ctx, 10*time.Millisecond)
	cache.Stop()

	// Stop after stop is a no-op.
	cache.Stop()
}

func TestRiskCacheStopWithoutStart(t *testing.T) {
	cache := NewRiskAssessmentCache(time.Minute, nil)
	cache.Stop()
}

func TestRiskCacheStartAndStopConcurrently(t *testing.T) {
	cache := NewRiskAssessmentCache(time.Minute, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cache.StartSweeper(context.Background(), time.Minute)
	}()
	go func() {
		defer wg.Done()
		cache.Stop()
	}()
	wg.Wait()

	// The final Stop must observe the started sweeper and wait it out.
	cache.Stop()
}
