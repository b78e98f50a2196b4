package dto

// Importance levels for outgoing notifications.
const (
	ImportanceHigh   = "high"
	ImportanceMedium = "medium"
	ImportanceLow    = "low"
)

// Notification is the channel-agnostic alert payload.
type Notification struct {
	Title      string                 `json:"title"`
	Message    string                 `json:"message"`
	Importance string                 `json:"importance"`
	Data       map[string]interface{} `json:"data,omitempty"`
}
