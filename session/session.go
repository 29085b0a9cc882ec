// Package session holds who is signed in. A *Session is handed explicitly to
// every view-state holder and to the http client as its token source.
package session

import (
	"strings"
	"sync"

	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/pkg/errors"
)

var ErrNoCredentials = errors.New("not signed in")

// Credentials is what a TokenStore persists between runs.
type Credentials struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c Credentials) IsZero() bool {
	return c.Token == "" && c.User.IsZero()
}

type Session struct {
	mu    sync.RWMutex
	token string
	user  model.User
}

func New(c Credentials) *Session {
	return &Session{token: c.Token, user: c.User}
}

// Token implements clients.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) SetUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = u
}

func (s *Session) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Credentials{Token: s.token, User: s.user}
}

func (s *Session) SignedIn() bool {
	return s.Token() != ""
}

// IsCurrentUser reports whether u is the signed in user.
func (s *Session) IsCurrentUser(u model.User) bool {
	return s.User().SameAs(u)
}

// SignIn replaces the credentials in place, so clients already holding s
// pick the new token up on their next request.
func (s *Session) SignIn(c Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = c.Token
	s.user = c.User
}

func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.user = model.User{}
}

// ResolveUser finds the owner of token among users. JWT tokens are matched
// by their email or subject claim, opaque tokens by user id.
func ResolveUser(token string, users []model.User) (model.User, error) {
	if token == "" {
		return model.User{}, ErrNoCredentials
	}
	if claims, err := ClaimsFromToken(token); err == nil {
		for _, u := range users {
			if claims.Email != "" && strings.EqualFold(u.Email, claims.Email) {
				return u, nil
			}
			if claims.Subject != "" && (u.Id == claims.Subject || strings.EqualFold(u.Email, claims.Subject)) {
				return u, nil
			}
		}
	}
	for _, u := range users {
		if u.Id == token {
			return u, nil
		}
	}
	return model.User{}, errors.New("no user owns the given token")
}
