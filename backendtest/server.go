// Package backendtest is an in-memory stand-in for the SmartScholars REST
// backend. It serves the same routes and envelopes, authenticates with
// "Authorization: Bearer <userId>", and lets tests script failures, add
// latency and inspect every request it received.
package backendtest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Request is what the server recorded about one incoming call.
type Request struct {
	Method string
	Path   string
	UserId string
}

func (r Request) String() string {
	return r.Method + " " + r.Path
}

type failure struct {
	method  string
	path    string
	status  int
	message string
}

type Server struct {
	Clock utils.Clock

	mu sync.Mutex

	users     map[string]*model.User
	userOrder []string
	passwords map[string]string

	// posts are kept oldest first, lists are served newest first.
	posts         []*model.Post
	comments      map[string][]*model.Comment
	likes         map[string]map[string]bool
	follows       map[string]map[string]model.FollowState
	statuses      []*model.Status
	notifications map[string][]*model.Notification

	failures []failure
	latency  map[string]time.Duration
	requests []Request

	router *gin.Engine
	http   *httptest.Server
}

func New() *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		Clock:         utils.NewRealClock(),
		users:         map[string]*model.User{},
		passwords:     map[string]string{},
		comments:      map[string][]*model.Comment{},
		likes:         map[string]map[string]bool{},
		follows:       map[string]map[string]model.FollowState{},
		notifications: map[string][]*model.Notification{},
		latency:       map[string]time.Duration{},
	}
	s.router = s.newRouter()
	return s
}

// Start serves the backend on a local port and returns its base url.
func (s *Server) Start() string {
	s.http = httptest.NewServer(s.router)
	return s.http.URL
}

func (s *Server) Close() {
	if s.http != nil {
		s.http.Close()
	}
}

func (s *Server) URL() string {
	if s.http == nil {
		return ""
	}
	return s.http.URL
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func newId() string {
	return uuid.NewString()
}

func (s *Server) now() model.Timestamp {
	return model.NewTimestamp(s.Clock.NowUtc())
}

// AddUser registers an account and returns it. The user id doubles as the
// bearer token.
func (s *Server) AddUser(username string, email string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := &model.User{Id: newId(), Username: username, Email: email}
	s.users[u.Id] = u
	s.userOrder = append(s.userOrder, u.Id)
	return *u
}

func (s *Server) User(id string) (model.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, false
	}
	return *u, true
}

func (s *Server) Password(userId string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passwords[userId]
}

func (s *Server) AddPost(authorId string, description string, mediaPaths ...string) model.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &model.Post{
		Id:          newId(),
		UserId:      authorId,
		Description: description,
		MediaPaths:  append([]string{}, mediaPaths...),
		CreatedAt:   s.now(),
	}
	s.posts = append(s.posts, p)
	return *p
}

func (s *Server) AddComment(postId string, authorId string, content string) model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.addCommentLocked(postId, authorId, content)
}

func (s *Server) addCommentLocked(postId string, authorId string, content string) *model.Comment {
	c := &model.Comment{
		Id:        newId(),
		PostId:    postId,
		UserId:    authorId,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.comments[postId] = append(s.comments[postId], c)
	return c
}

func (s *Server) Comments(postId string) []model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := []model.Comment{}
	for _, c := range s.comments[postId] {
		res = append(res, *c)
	}
	return res
}

func (s *Server) AddStatus(authorId string, content string) model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &model.Status{
		Id:        newId(),
		UserId:    authorId,
		Content:   content,
		CreatedAt: s.now(),
	}
	s.statuses = append(s.statuses, st)
	return *st
}

func (s *Server) Like(postId string, userId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.toggleLikeLocked(postId, userId)
}

func (s *Server) toggleLikeLocked(postId string, userId string) {
	if s.likes[postId] == nil {
		s.likes[postId] = map[string]bool{}
	}
	if s.likes[postId][userId] {
		delete(s.likes[postId], userId)
		return
	}
	s.likes[postId][userId] = true
}

func (s *Server) SetFollow(followerId string, targetId string, state model.FollowState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setFollowLocked(followerId, targetId, state)
}

func (s *Server) setFollowLocked(followerId string, targetId string, state model.FollowState) {
	if state == model.FollowNone {
		delete(s.follows[followerId], targetId)
		return
	}
	if s.follows[followerId] == nil {
		s.follows[followerId] = map[string]model.FollowState{}
	}
	s.follows[followerId][targetId] = state
}

// Accept promotes a pending follow request to FOLLOWING.
func (s *Server) Accept(followerId string, targetId string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.follows[followerId][targetId] == model.FollowPending {
		s.follows[followerId][targetId] = model.FollowFollowing
	}
}

func (s *Server) FollowState(followerId string, targetId string) model.FollowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.followStateLocked(followerId, targetId)
}

func (s *Server) followStateLocked(followerId string, targetId string) model.FollowState {
	if state, ok := s.follows[followerId][targetId]; ok {
		return state
	}
	return model.FollowNone
}

func (s *Server) Notify(userId string, message string) model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.notifyLocked(userId, message)
}

func (s *Server) notifyLocked(userId string, message string) *model.Notification {
	n := &model.Notification{
		Id:        newId(),
		UserId:    userId,
		Message:   message,
		Timestamp: s.now(),
	}
	s.notifications[userId] = append(s.notifications[userId], n)
	return n
}

// FailNext makes the next request matching method and concrete path answer
// with status and {"message": message} instead of being served.
func (s *Server) FailNext(method string, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{method: method, path: path, status: status, message: message})
}

// SetLatency delays every request to path by d, or until the client gives up.
func (s *Server) SetLatency(path string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latency[path] = d
}

func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request{}, s.requests...)
}

func (s *Server) RequestCount(method string, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			count++
		}
	}
	return count
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

func (s *Server) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := []string{}
	for _, r := range s.requests {
		lines = append(lines, r.String())
	}
	return fmt.Sprintf("backendtest with %d users, %d posts, requests:\n%s", len(s.users), len(s.posts), strings.Join(lines, "\n"))
}
