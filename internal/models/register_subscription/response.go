package models

type RegisterSubscriptionResponse struct {
	Success bool `json:"success"`
}
