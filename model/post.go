package model

/*

Post is a piece of content shown in the feed

Id: backend assigned identifier
UserId: author's user id
Description: free text under the media carousel
MediaPaths: image or video paths relative to the backend base url
CreatedAt: time when the post was created
User: author, embedded by the client from the list envelope

*/

type Post struct {
	Id          string    `json:"id"`
	UserId      string    `json:"userId,omitempty"`
	Description string    `json:"description"`
	MediaPaths  []string  `json:"mediaPaths"`
	CreatedAt   Timestamp `json:"createdAt"`
	User        User      `json:"-"`
}

// PostEntry is a single element of GET /posts/{all,my,following}.
type PostEntry struct {
	Post Post `json:"post"`
	User User `json:"user"`
}

// Normalize folds the envelope's author into the post.
func (e PostEntry) Normalize() Post {
	p := e.Post
	p.User = e.User
	return p
}

func NormalizePosts(entries []PostEntry) []Post {
	posts := make([]Post, 0, len(entries))
	for _, e := range entries {
		posts = append(posts, e.Normalize())
	}
	return posts
}

// LikeStatus is derived by the backend and always refetched after a toggle.
type LikeStatus struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"likeCount"`
}
