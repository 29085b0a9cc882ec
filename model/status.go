package model

/*

Status is ephemeral author-owned content, shown one at a time in the
full-screen viewer with auto-dismiss.

Id: backend assigned identifier
UserId: author's user id
Content: caption or text of the status
MediaPath: optional image path relative to the backend base url
CreatedAt: time when the status was published
User: author, embedded by the client from the list envelope

*/

type Status struct {
	Id        string    `json:"id"`
	UserId    string    `json:"userId,omitempty"`
	Content   string    `json:"content"`
	MediaPath string    `json:"mediaPath,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	User      User      `json:"-"`
}

// StatusEntry is a single element of GET /status.
type StatusEntry struct {
	Status Status `json:"status"`
	User   User   `json:"user"`
}

func (e StatusEntry) Normalize() Status {
	s := e.Status
	s.User = e.User
	return s
}

func NormalizeStatuses(entries []StatusEntry) []Status {
	statuses := make([]Status, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, e.Normalize())
	}
	return statuses
}

// StatusPayload is the body of PUT /status/{id}.
type StatusPayload struct {
	Content string `json:"content"`
}
