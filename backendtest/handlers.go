package backendtest

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/gin-gonic/gin"
)

const (
	currentUserKey = "currentUser"
	uploadsPrefix  = "/uploads/"
)

type contentForm struct {
	Content string `json:"content"`
}

func (s *Server) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(s.record(), s.inject(), s.authenticate())

	// "/posts/all|my|following" share the wildcard with "/posts/:postId/..."
	router.GET("/posts/:postId", s.listPosts)
	router.POST("/posts", s.createPost)
	router.GET("/posts/:postId/like-status", s.likeStatus)
	router.POST("/posts/:postId/like", s.toggleLike)

	router.GET("/comments/:id", s.listComments)
	router.POST("/comments/:id", s.createComment)
	router.PUT("/comments/:id", s.editComment)
	router.DELETE("/comments/:id", s.deleteComment)

	router.GET("/users/all", s.listUsers)

	router.GET("/follow/status/:userId", s.followStatus)
	router.POST("/follow/:userId", s.follow)
	router.DELETE("/follow/:userId", s.unfollow)

	router.GET("/status", s.listStatuses)
	router.PUT("/status/:id", s.editStatus)
	router.DELETE("/status/:id", s.deleteStatus)

	router.PUT("/auth/update-profile", s.updateProfile)
	router.DELETE("/auth/delete-account", s.deleteAccount)

	router.GET("/api/notifications", s.listNotifications)
	router.PUT("/api/notifications/mark-read", s.markNotificationsRead)

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "API not found"})
	})
	return router
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			UserId: bearer(c),
		})
		s.mu.Unlock()
		c.Next()
	}
}

// inject applies scripted failures and latency before anything is served.
func (s *Server) inject() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		delay := s.latency[c.Request.URL.Path]
		var scripted *failure
		for i, f := range s.failures {
			if f.method == c.Request.Method && f.path == c.Request.URL.Path {
				scripted = &s.failures[i]
				s.failures = append(s.failures[:i:i], s.failures[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-c.Request.Context().Done():
				c.Abort()
				return
			}
		}
		if scripted != nil {
			abort(c, scripted.status, scripted.message)
			return
		}
		c.Next()
	}
}

func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		s.mu.Lock()
		u, ok := s.users[token]
		s.mu.Unlock()
		if token == "" || !ok {
			abort(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		c.Set(currentUserKey, u.Id)
		c.Next()
	}
}

func currentUserId(c *gin.Context) string {
	return c.GetString(currentUserKey)
}

func (s *Server) postLocked(id string) *model.Post {
	for _, p := range s.posts {
		if p.Id == id {
			return p
		}
	}
	return nil
}

func (s *Server) userLocked(id string) model.User {
	if u, ok := s.users[id]; ok {
		return *u
	}
	return model.User{Id: id}
}

func (s *Server) listPosts(c *gin.Context) {
	me := currentUserId(c)
	scope := c.Param("postId")

	s.mu.Lock()
	defer s.mu.Unlock()

	var include func(p *model.Post) bool
	switch scope {
	case "all":
		include = func(p *model.Post) bool { return true }
	case "my":
		include = func(p *model.Post) bool { return p.UserId == me }
	case "following":
		include = func(p *model.Post) bool {
			return s.followStateLocked(me, p.UserId) == model.FollowFollowing
		}
	default:
		abort(c, http.StatusNotFound, "API not found")
		return
	}

	entries := []model.PostEntry{}
	for i := len(s.posts) - 1; i >= 0; i-- {
		p := s.posts[i]
		if include(p) {
			entries = append(entries, model.PostEntry{Post: *p, User: s.userLocked(p.UserId)})
		}
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) createPost(c *gin.Context) {
	me := currentUserId(c)
	form, err := c.MultipartForm()
	if err != nil {
		abort(c, http.StatusBadRequest, "multipart form expected")
		return
	}

	description := ""
	if values := form.Value["description"]; len(values) > 0 {
		description = values[0]
	}
	paths := []string{}
	for _, f := range form.File["files"] {
		paths = append(paths, uploadsPrefix+newId()+"-"+f.Filename)
	}
	if strings.TrimSpace(description) == "" && len(paths) == 0 {
		abort(c, http.StatusBadRequest, "Post must have a description or media")
		return
	}

	post := s.AddPost(me, description, paths...)
	c.JSON(http.StatusOK, post)
}

func (s *Server) likeStatus(c *gin.Context) {
	me := currentUserId(c)
	postId := c.Param("postId")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.postLocked(postId) == nil {
		abort(c, http.StatusNotFound, "Post not found")
		return
	}
	c.JSON(http.StatusOK, model.LikeStatus{
		Liked:     s.likes[postId][me],
		LikeCount: len(s.likes[postId]),
	})
}

func (s *Server) toggleLike(c *gin.Context) {
	me := currentUserId(c)
	postId := c.Param("postId")

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.postLocked(postId) == nil {
		abort(c, http.StatusNotFound, "Post not found")
		return
	}
	s.toggleLikeLocked(postId, me)
	c.String(http.StatusOK, "Like toggled")
}

func (s *Server) listComments(c *gin.Context) {
	postId := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := []model.CommentEntry{}
	for _, cm := range s.comments[postId] {
		entries = append(entries, model.CommentEntry{Comment: *cm, User: s.userLocked(cm.UserId)})
	}
	c.JSON(http.StatusOK, entries)
}

func bindContent(c *gin.Context) (string, bool) {
	var form contentForm
	if err := c.ShouldBindJSON(&form); err != nil || strings.TrimSpace(form.Content) == "" {
		abort(c, http.StatusBadRequest, "Content is required")
		return "", false
	}
	return form.Content, true
}

func (s *Server) createComment(c *gin.Context) {
	me := currentUserId(c)
	postId := c.Param("id")
	content, ok := bindContent(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	post := s.postLocked(postId)
	if post == nil {
		abort(c, http.StatusNotFound, "Post not found")
		return
	}
	comment := s.addCommentLocked(postId, me, content)
	if post.UserId != me {
		s.notifyLocked(post.UserId, s.userLocked(me).Username+" commented on your post")
	}
	c.JSON(http.StatusOK, comment)
}

// commentLocked finds a comment and checks that me is its author or the
// author of the post it belongs to.
func (s *Server) commentLocked(c *gin.Context, me string, id string) (*model.Comment, int, bool) {
	for postId, list := range s.comments {
		for i, cm := range list {
			if cm.Id != id {
				continue
			}
			post := s.postLocked(postId)
			if cm.UserId != me && (post == nil || post.UserId != me) {
				abort(c, http.StatusForbidden, "You are not allowed to modify this comment")
				return nil, 0, false
			}
			return cm, i, true
		}
	}
	abort(c, http.StatusNotFound, "Comment not found")
	return nil, 0, false
}

func (s *Server) editComment(c *gin.Context) {
	me := currentUserId(c)
	content, ok := bindContent(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cm, _, ok := s.commentLocked(c, me, c.Param("id"))
	if !ok {
		return
	}
	cm.Content = content
	c.JSON(http.StatusOK, cm)
}

func (s *Server) deleteComment(c *gin.Context) {
	me := currentUserId(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	cm, idx, ok := s.commentLocked(c, me, c.Param("id"))
	if !ok {
		return
	}
	list := s.comments[cm.PostId]
	s.comments[cm.PostId] = append(list[:idx:idx], list[idx+1:]...)
	c.String(http.StatusOK, "Comment deleted")
}

func (s *Server) listUsers(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := []model.User{}
	for _, id := range s.userOrder {
		if u, ok := s.users[id]; ok {
			users = append(users, *u)
		}
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) followStatus(c *gin.Context) {
	me := currentUserId(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, model.FollowStatusResponse{Status: s.followStateLocked(me, c.Param("userId")).String()})
}

func (s *Server) follow(c *gin.Context) {
	me := currentUserId(c)
	target := c.Param("userId")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[target]; !ok {
		abort(c, http.StatusNotFound, "User not found")
		return
	}
	if target == me {
		abort(c, http.StatusBadRequest, "You cannot follow yourself")
		return
	}
	if s.followStateLocked(me, target) == model.FollowNone {
		s.setFollowLocked(me, target, model.FollowPending)
		s.notifyLocked(target, s.userLocked(me).Username+" requested to follow you")
	}
	c.String(http.StatusOK, "Follow request sent")
}

func (s *Server) unfollow(c *gin.Context) {
	me := currentUserId(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setFollowLocked(me, c.Param("userId"), model.FollowNone)
	c.String(http.StatusOK, "Unfollowed")
}

func (s *Server) listStatuses(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := []model.StatusEntry{}
	for _, st := range s.statuses {
		entries = append(entries, model.StatusEntry{Status: *st, User: s.userLocked(st.UserId)})
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) ownStatusLocked(c *gin.Context, me string, id string) (int, bool) {
	for i, st := range s.statuses {
		if st.Id != id {
			continue
		}
		if st.UserId != me {
			abort(c, http.StatusForbidden, "You are not allowed to modify this status")
			return 0, false
		}
		return i, true
	}
	abort(c, http.StatusNotFound, "Status not found")
	return 0, false
}

func (s *Server) editStatus(c *gin.Context) {
	me := currentUserId(c)
	content, ok := bindContent(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.ownStatusLocked(c, me, c.Param("id"))
	if !ok {
		return
	}
	s.statuses[idx].Content = content
	c.String(http.StatusOK, "Status updated")
}

func (s *Server) deleteStatus(c *gin.Context) {
	me := currentUserId(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.ownStatusLocked(c, me, c.Param("id"))
	if !ok {
		return
	}
	s.statuses = append(s.statuses[:idx:idx], s.statuses[idx+1:]...)
	c.String(http.StatusOK, "Status deleted")
}

func (s *Server) updateProfile(c *gin.Context) {
	me := currentUserId(c)
	username := strings.TrimSpace(c.PostForm("username"))
	email := strings.TrimSpace(c.PostForm("email"))
	if username == "" || email == "" {
		abort(c, http.StatusBadRequest, "Username and email are required")
		return
	}

	image := ""
	if header, err := c.FormFile("file"); err == nil {
		f, err := header.Open()
		if err != nil {
			abort(c, http.StatusBadRequest, "Invalid profile image")
			return
		}
		io.Copy(io.Discard, f)
		f.Close()
		image = uploadsPrefix + newId() + "-" + header.Filename
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if id != me && strings.EqualFold(u.Email, email) {
			abort(c, http.StatusBadRequest, "Email is already in use")
			return
		}
	}
	u := s.users[me]
	u.Username = username
	u.Email = email
	if image != "" {
		u.ProfileImage = image
	}
	if password := c.PostForm("password"); password != "" {
		s.passwords[me] = password
	}
	c.String(http.StatusOK, "Profile updated successfully")
}

func (s *Server) deleteAccount(c *gin.Context) {
	me := currentUserId(c)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, me)
	delete(s.passwords, me)
	delete(s.follows, me)
	for _, targets := range s.follows {
		delete(targets, me)
	}
	kept := []*model.Post{}
	for _, p := range s.posts {
		if p.UserId != me {
			kept = append(kept, p)
		} else {
			delete(s.comments, p.Id)
			delete(s.likes, p.Id)
		}
	}
	s.posts = kept
	keptStatuses := []*model.Status{}
	for _, st := range s.statuses {
		if st.UserId != me {
			keptStatuses = append(keptStatuses, st)
		}
	}
	s.statuses = keptStatuses
	delete(s.notifications, me)
	c.String(http.StatusOK, "Account deleted")
}

func (s *Server) listNotifications(c *gin.Context) {
	me := currentUserId(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.notifications[me]
	res := make([]model.Notification, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		res = append(res, *list[i])
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) markNotificationsRead(c *gin.Context) {
	me := currentUserId(c)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications[me] {
		n.Read = true
	}
	c.String(http.StatusOK, "Marked as read")
}
