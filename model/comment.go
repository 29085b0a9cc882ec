package model

// Comment is owned by a post and lives as long as the post does.
type Comment struct {
	Id        string    `json:"id"`
	PostId    string    `json:"postId,omitempty"`
	UserId    string    `json:"userId,omitempty"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt"`
}

// CommentEntry is a single element of GET /comments/{postId}. The feed keeps
// entries as-is so the author renders next to the text.
type CommentEntry struct {
	Comment Comment `json:"comment"`
	User    User    `json:"user"`
}

// CommentPayload is the body of POST and PUT /comments/{id}.
type CommentPayload struct {
	Content string `json:"content"`
}
