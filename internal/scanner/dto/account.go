package dto

// ListAccountsRequest filters and pages the account list.
type ListAccountsRequest struct {
	Search    string `query:"search"`
	Status    string `query:"status"`
	SortBy    string `query:"sort_by"`
	SortOrder string `query:"sort_order"`
	Limit     int    `query:"limit"`
	Offset    int    `query:"offset"`
}

// IsActive maps the status filter to a tri-state active flag.
func (r ListAccountsRequest) IsActive() *bool {
	switch r.Status {
	case "active":
		v := true
		return &v
	case "inactive":
		v := false
		return &v
	default:
		return nil
	}
}

// ListAccountsResponse is a page of accounts plus the unpaged total.
type ListAccountsResponse struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}

// AddAccountRequest adds a single handle to monitoring.
type AddAccountRequest struct {
	Handle string `json:"handle"`
}

// ImportFollowingRequest imports every account a handle follows.
type ImportFollowingRequest struct {
	Handle string `json:"handle"`
}

// UpsertResult counts rows created and refreshed by a bulk upsert.
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
}

// UpdateMonitoringRequest changes monitoring settings. Nil fields are left as is.
type UpdateMonitoringRequest struct {
	IsActive      *bool   `json:"is_active"`
	ScanFrequency *string `json:"scan_frequency"`
}

// BatchMonitoringRequest toggles monitoring for many accounts at once.
type BatchMonitoringRequest struct {
	Handles  []string `json:"handles"`
	IsActive *bool    `json:"is_active"`
}

// UpdateMetadataRequest changes operator-owned fields. Nil fields are left as is.
type UpdateMetadataRequest struct {
	Tags  []string `json:"tags"`
	Notes *string  `json:"notes"`
}
