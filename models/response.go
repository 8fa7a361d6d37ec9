package models

// MediaResponse is the response for POST /api/v1/media.
type MediaResponse struct {
	Success bool `json:"success"`

	// NoteID is the identifier parsed from the note URL path.
	NoteID string `json:"note_id,omitempty"`

	// URLs are the media URLs in document order, without duplicates.
	// Never null.
	URLs  []string `json:"urls"`
	Total int      `json:"total"`

	// Mode is the extraction profile that produced URLs.
	Mode string `json:"mode,omitempty"`

	// StatusCode is the HTTP status code of the note page.
	StatusCode int `json:"status_code"`

	// FinalURL is the note URL after redirects, which resolves short links.
	FinalURL string `json:"final_url"`

	Title string `json:"title,omitempty"`

	// EngineUsed is the fetch engine that produced the page
	// ("http", "rod", "rod-stealth").
	EngineUsed string `json:"engine_used,omitempty"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cache_status,omitempty"`

	Timing TimingInfo `json:"timing"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs int64 `json:"total_ms"`

	// FetchMs is the time spent loading the note page.
	FetchMs int64 `json:"fetch_ms"`

	// ExtractMs is the time spent in the extraction pipeline.
	ExtractMs int64 `json:"extract_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status    string    `json:"status"` // "healthy" or "degraded"
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool_stats"`
	Version   string    `json:"version"`
}

// PoolStats reports the state of the browser page pool.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
	BrowserPID  int `json:"browser_pid"`
}
