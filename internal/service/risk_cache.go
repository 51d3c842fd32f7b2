package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/careloop/scheduling-api/internal/models"
)

// DefaultRiskCacheTTL bounds how long a risk assessment stays fresh.
const DefaultRiskCacheTTL = 5 * time.Minute

// RiskAssessmentCache is an in-memory keyed store of the last computed risk
// per appointment. Entries expire on read after TTL and are also removed by
// a periodic sweep; the two mechanisms are independent. Safe for concurrent
// use.
type RiskAssessmentCache struct {
	mu      sync.RWMutex
	entries map[string]models.RiskAssessment

	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	started  bool
}

// NewRiskAssessmentCache constructs the cache. Non-positive TTL falls back
// to the 5 minute default.
func NewRiskAssessmentCache(ttl time.Duration, logger *zap.Logger) *RiskAssessmentCache {
	if ttl <= 0 {
		ttl = DefaultRiskCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskAssessmentCache{
		entries: make(map[string]models.RiskAssessment),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Get returns the assessment for the appointment if present and fresh.
// Expired entries report a miss without being deleted; the sweep owns
// removal so reads stay cheap.
func (c *RiskAssessmentCache) Get(appointmentID string) (models.RiskAssessment, bool) {
	c.mu.RLock()
	entry, ok := c.entries[appointmentID]
	c.mu.RUnlock()
	if !ok {
		return models.RiskAssessment{}, false
	}
	if c.now().Sub(entry.Timestamp) >= c.ttl {
		return models.RiskAssessment{}, false
	}
	return entry, true
}

// Put stores or overwrites the assessment for its appointment.
func (c *RiskAssessmentCache) Put(assessment models.RiskAssessment) {
	c.mu.Lock()
	c.entries[assessment.AppointmentID] = assessment
	c.mu.Unlock()
}

// Delete removes the entry, if any. Used for explicit invalidation.
func (c *RiskAssessmentCache) Delete(appointmentID string) {
	c.mu.Lock()
	delete(c.entries, appointmentID)
	c.mu.Unlock()
}

// Len reports the current entry count, expired entries included.
func (c *RiskAssessmentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes every expired entry and returns how many were evicted.
// Expired keys are collected under the read lock first so Get and Put are
// never blocked for the full scan.
func (c *RiskAssessmentCache) Sweep() int {
	cutoff := c.now().Add(-c.ttl)

	c.mu.RLock()
	var expired []string
	for id, entry := range c.entries {
		if !entry.Timestamp.After(cutoff) {
			expired = append(expired, id)
		}
	}
	c.mu.RUnlock()

	if len(expired) == 0 {
		return 0
	}

	evicted := 0
	c.mu.Lock()
	for _, id := range expired {
		if entry, ok := c.entries[id]; ok && !entry.Timestamp.After(cutoff) {
			delete(c.entries, id)
			evicted++
		}
	}
	c.mu.Unlock()
	return evicted
}

// StartSweeper launches the periodic sweep goroutine. It stops when the
// context is canceled or Stop is called. Non-positive intervals fall back
// to the TTL.
func (c *RiskAssessmentCache) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = c.ttl
	}
	c.mu.Lock()
	c.started = true
	c.mu.Unlock()
	go func() {
		defer close(c.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				if n := c.Sweep(); n > 0 {
					c.logger.Debug("risk cache sweep evicted entries", zap.Int("evicted", n))
				}
			}
		}
	}()
}

// Stop terminates the sweeper goroutine and waits for it to exit. Safe to
// call multiple times and without a prior StartSweeper.
func (c *RiskAssessmentCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if started {
		<-c.done
	}
}
