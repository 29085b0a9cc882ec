package backendtest

import (
	"github.com/Leitan123/SmartScholarsPAF/api"
	"github.com/Leitan123/SmartScholarsPAF/clients"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/session"
)

// SignIn returns a session for u whose token the server accepts.
func (s *Server) SignIn(u model.User) *session.Session {
	return session.New(session.Credentials{Token: u.Id, User: u})
}

// Client returns an api client talking to the started server as sess.
func (s *Server) Client(sess *session.Session, opts ...clients.Option) *api.Client {
	opts = append([]clients.Option{clients.WithTokenSource(sess)}, opts...)
	return api.NewClient(clients.NewHttpClient(s.URL(), opts...))
}
