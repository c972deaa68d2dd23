package models

// ReminderPayload is the JSON body of a reminder push message. The tag lets
// the receiving notification handler replace a previous reminder instead of
// stacking a new one.
type ReminderPayload struct {
	Title string       `json:"title"`
	Body  string       `json:"body"`
	Tag   string       `json:"tag"`
	Data  *PayloadData `json:"data,omitempty"`
}

// PayloadData carries the URL the notification click handler should focus or
// open, defaulting to "/" on the receiving side.
type PayloadData struct {
	URL string `json:"url"`
}
