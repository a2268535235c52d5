package models

// SearchResponse is the response for /api/v1/search.
type SearchResponse struct {
	// Success indicates whether the extraction produced at least one record.
	Success bool `json:"success"`

	// Count is len(Products).
	Count int `json:"count"`

	// Products is the ordered list of valid records.
	Products []Product `json:"products"`

	// Backend records which backend produced the result.
	Backend Backend `json:"backend,omitempty"`

	// Attempts is the total number of backend invocations used.
	Attempts int `json:"attempts,omitempty"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Details is a human-readable description of the last failure cause.
	// Populated only when Success is false.
	Details string `json:"details,omitempty"`

	// Solution is a generic remediation hint for failed requests.
	Solution string `json:"solution,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status      string `json:"status"` // "healthy" or "degraded"
	Uptime      string `json:"uptime"`
	SessionLive bool   `json:"session_live"`
	Version     string `json:"version"`
}
