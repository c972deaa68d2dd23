package models

// DispatchResponse summarizes one dispatcher invocation: pushes delivered
// versus subscriptions attempted.
type DispatchResponse struct {
	Sent    int    `json:"sent"`
	Total   int    `json:"total,omitempty"`
	Message string `json:"message,omitempty"`
}
