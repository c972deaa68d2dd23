package models

type RegisterSubscriptionRequest struct {
	Endpoint  string `json:"endpoint"`
	P256dhKey string `json:"p256dh_key"`
	AuthKey   string `json:"auth_key"`
	UserAgent string `json:"user_agent,omitempty"`
}
