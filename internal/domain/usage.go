package domain

import "time"

// UsageRecord captures one pipeline invocation for the usage ledger.
type UsageRecord struct {
	UserID       string            `json:"user_id"`
	Endpoint     string            `json:"endpoint"`
	RequestType  string            `json:"request_type"`
	Timestamp    time.Time         `json:"timestamp"`
	ResponseTime time.Duration     `json:"response_time"`
	Success      bool              `json:"success"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}
