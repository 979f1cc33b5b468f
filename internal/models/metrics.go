package models

import "time"

// MetricsSnapshot is a lightweight summary of process metrics for the status endpoint.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	GradesCreated            uint64    `json:"grades_created"`
	GradesDeleted            uint64    `json:"grades_deleted"`
	AuthFailures             uint64    `json:"auth_failures"`
	AssistantReplies         uint64    `json:"assistant_replies"`
	AssistantFallbacks       uint64    `json:"assistant_fallbacks"`
	Goroutines               int       `json:"goroutines"`
	UptimeSeconds            int64     `json:"uptime_seconds"`
	GeneratedAt              time.Time `json:"generated_at"`
}
