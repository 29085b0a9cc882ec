package model

// Notification is an entry of the current user's inbox, newest first.
type Notification struct {
	Id        string    `json:"id"`
	UserId    string    `json:"userId,omitempty"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	Timestamp Timestamp `json:"timestamp"`
}
