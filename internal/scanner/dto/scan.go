package dto

import "time"

// UpdateScanConfigRequest is a partial scan config. Nil fields keep their stored value.
type UpdateScanConfigRequest struct {
	PostLimit           *int      `json:"post_limit"`
	ScanIntervalMinutes *int      `json:"scan_interval_minutes"`
	MaxConcurrentScans  *int      `json:"max_concurrent_scans"`
	MinQualityScore     *int      `json:"min_quality_score"`
	ImportantKeywords   *[]string `json:"important_keywords"`
	AssetWatchlist      *[]string `json:"asset_watchlist"`
}

// ScanRequest triggers a manual scan. An empty handle runs a full cycle.
// Async requests are queued on the scan request stream instead of run inline.
type ScanRequest struct {
	Handle string `json:"handle"`
	Async  bool   `json:"async"`
}

// ScanRequestMessage is the payload of a scan request read from the Redis stream.
type ScanRequestMessage struct {
	Handle      string    `json:"handle,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}

// AccountScanResult summarizes one account's scan.
type AccountScanResult struct {
	Handle         string `json:"handle"`
	PostsFetched   int    `json:"posts_fetched"`
	PostsAnalyzed  int    `json:"posts_analyzed"`
	Notified       int    `json:"notified"`
	DispatchFailed int    `json:"dispatch_failed"`
	QualityScore   int    `json:"quality_score"`
	Error          string `json:"error,omitempty"`
}

// CycleResult summarizes one orchestrator cycle.
type CycleResult struct {
	CycleID        string              `json:"cycle_id"`
	Trigger        string              `json:"trigger"`
	Status         string              `json:"status"`
	AccountsTotal  int                 `json:"accounts_total"`
	AccountsFailed int                 `json:"accounts_failed"`
	Accounts       []AccountScanResult `json:"accounts"`
	StartedAt      time.Time           `json:"started_at"`
	Duration       time.Duration       `json:"duration"`
}

// ScanCycleResponse is the API view of a stored scan cycle.
type ScanCycleResponse struct {
	ID             string              `json:"id"`
	Trigger        string              `json:"trigger"`
	Status         string              `json:"status"`
	AccountsTotal  int                 `json:"accounts_total"`
	AccountsFailed int                 `json:"accounts_failed"`
	Accounts       []AccountScanResult `json:"accounts,omitempty"`
	ErrorMessage   string              `json:"error_message,omitempty"`
	StartedAt      time.Time           `json:"started_at"`
	CompletedAt    *time.Time          `json:"completed_at,omitempty"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse represents a generic error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}
