// Package api is the typed surface of the SmartScholars REST backend. Every
// method maps to exactly one request; merging results into view state is the
// caller's business.
package api

import (
	"context"
	"io"
	"net/http"

	"github.com/Leitan123/SmartScholarsPAF/clients"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/pkg/errors"
)

// PostScope selects one of the three post list endpoints.
type PostScope string

const (
	ScopeFollowing PostScope = "following"
	ScopeAll       PostScope = "all"
	ScopeMy        PostScope = "my"
)

func (s PostScope) IsValid() bool {
	switch s {
	case ScopeFollowing, ScopeAll, ScopeMy:
		return true
	}
	return false
}

// Upload is a file attached to a multipart request.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ProfileUpdate is the payload of PUT /auth/update-profile. Password and
// Image are only sent when set.
type ProfileUpdate struct {
	Username string
	Email    string
	Password string
	Image    *Upload
}

type Client struct {
	http *clients.HttpClient
}

func NewClient(http *clients.HttpClient) *Client {
	return &Client{http: http}
}

func (c *Client) BaseURL() string {
	return c.http.BaseURL()
}

func (c *Client) ListPosts(ctx context.Context, scope PostScope) ([]model.Post, error) {
	if !scope.IsValid() {
		return nil, errors.Errorf("unknown post scope %q", scope)
	}
	var entries []model.PostEntry
	if err := c.http.Get(ctx, clients.Path("/posts/"+string(scope)), &entries); err != nil {
		return nil, err
	}
	return model.NormalizePosts(entries), nil
}

// CreatePost uploads a new post with its media files.
func (c *Client) CreatePost(ctx context.Context, description string, media []Upload) (model.Post, error) {
	form := clients.NewMultipartForm().AddField("description", description)
	for _, m := range media {
		form.AddFile("files", m.Filename, m.Content)
	}
	var post model.Post
	err := c.http.SendMultipart(ctx, http.MethodPost, clients.Path("/posts"), form, &post)
	return post, err
}

func (c *Client) ListComments(ctx context.Context, postId string) ([]model.CommentEntry, error) {
	var entries []model.CommentEntry
	if err := c.http.Get(ctx, clients.Path("/comments/{postId}", postId), &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.CommentEntry{}
	}
	return entries, nil
}

func (c *Client) CreateComment(ctx context.Context, postId string, content string) (model.Comment, error) {
	var comment model.Comment
	err := c.http.Post(ctx, clients.Path("/comments/{postId}", postId), model.CommentPayload{Content: content}, &comment)
	return comment, err
}

func (c *Client) EditComment(ctx context.Context, commentId string, content string) (model.Comment, error) {
	var comment model.Comment
	err := c.http.Put(ctx, clients.Path("/comments/{commentId}", commentId), model.CommentPayload{Content: content}, &comment)
	return comment, err
}

func (c *Client) DeleteComment(ctx context.Context, commentId string) error {
	return c.http.Delete(ctx, clients.Path("/comments/{commentId}", commentId), nil)
}

func (c *Client) LikeStatus(ctx context.Context, postId string) (model.LikeStatus, error) {
	var status model.LikeStatus
	err := c.http.Get(ctx, clients.Path("/posts/{postId}/like-status", postId), &status)
	return status, err
}

func (c *Client) ToggleLike(ctx context.Context, postId string) error {
	return c.http.Post(ctx, clients.Path("/posts/{postId}/like", postId), nil, nil)
}

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := c.http.Get(ctx, clients.Path("/users/all"), &users)
	return users, err
}

func (c *Client) FollowStatus(ctx context.Context, userId string) (model.FollowState, error) {
	var res model.FollowStatusResponse
	if err := c.http.Get(ctx, clients.Path("/follow/status/{userId}", userId), &res); err != nil {
		return model.FollowNone, err
	}
	return model.ParseFollowState(res.Status), nil
}

func (c *Client) Follow(ctx context.Context, userId string) error {
	return c.http.Post(ctx, clients.Path("/follow/{userId}", userId), nil, nil)
}

func (c *Client) Unfollow(ctx context.Context, userId string) error {
	return c.http.Delete(ctx, clients.Path("/follow/{userId}", userId), nil)
}

func (c *Client) ListStatuses(ctx context.Context) ([]model.Status, error) {
	var entries []model.StatusEntry
	if err := c.http.Get(ctx, clients.Path("/status"), &entries); err != nil {
		return nil, err
	}
	return model.NormalizeStatuses(entries), nil
}

func (c *Client) UpdateStatus(ctx context.Context, id string, content string) error {
	return c.http.Put(ctx, clients.Path("/status/{id}", id), model.StatusPayload{Content: content}, nil)
}

func (c *Client) DeleteStatus(ctx context.Context, id string) error {
	return c.http.Delete(ctx, clients.Path("/status/{id}", id), nil)
}

// UpdateProfile sends the profile form as a single multipart request. The
// backend answers with a plain confirmation, not the updated user.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	form := clients.NewMultipartForm().
		AddField("username", update.Username).
		AddField("email", update.Email)
	if update.Password != "" {
		form.AddField("password", update.Password)
	}
	if update.Image != nil {
		form.AddFile("file", update.Image.Filename, update.Image.Content)
	}
	return c.http.SendMultipart(ctx, http.MethodPut, clients.Path("/auth/update-profile"), form, nil)
}

func (c *Client) DeleteAccount(ctx context.Context) error {
	return c.http.Delete(ctx, clients.Path("/auth/delete-account"), nil)
}

func (c *Client) Notifications(ctx context.Context) ([]model.Notification, error) {
	var notifications []model.Notification
	err := c.http.Get(ctx, clients.Path("/api/notifications"), &notifications)
	return notifications, err
}

func (c *Client) MarkNotificationsRead(ctx context.Context) error {
	return c.http.Put(ctx, clients.Path("/api/notifications/mark-read"), nil, nil)
}
