package models

import "time"

// SystemMetrics represents system level instrumentation snapshots.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	OptimizationsTotal       uint64    `json:"optimizations_total"`
	AverageOptimizationMs    float64   `json:"average_optimization_ms"`
	OracleFallbacksTotal     uint64    `json:"oracle_fallbacks_total"`
	RiskAlertsTotal          uint64    `json:"risk_alerts_total"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
