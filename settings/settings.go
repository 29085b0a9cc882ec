// Package settings backs the profile settings screen: the profile form and
// account deletion.
package settings

import (
	"context"
	"strings"

	"github.com/Leitan123/SmartScholarsPAF/api"
	"github.com/Leitan123/SmartScholarsPAF/clients"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/notify"
	"github.com/Leitan123/SmartScholarsPAF/session"
	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

const (
	SignInRoute = "/signin"

	MsgRequired        = "Username and email are required"
	MsgInvalidEmail    = "Please enter a valid email address"
	MsgPasswordsDiffer = "Passwords do not match"
	MsgUpdated         = "Profile updated successfully!"
	MsgUpdateFailed    = "Update failed"
	MsgDeleted         = "Account deleted. Goodbye!"
	MsgDeleteFailed    = "Account deletion failed"

	DeletePrompt = "Are you sure you want to delete your account? This action cannot be undone."
)

// Form is the profile form. Password and ProfileImage are optional, an empty
// password keeps the current one.
type Form struct {
	Username        string `validate:"required"`
	Email           string `validate:"required,email"`
	Password        string
	ConfirmPassword string `validate:"eqfield=Password"`
	ProfileImage    *api.Upload
}

// ValidationError is returned when the form is rejected before any request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Confirmer asks the user a yes or no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

type Editor struct {
	api      *api.Client
	session  *session.Session
	store    session.TokenStore
	notifier notify.Notifier
	validate *validator.Validate
}

func NewEditor(client *api.Client, s *session.Session, store session.TokenStore, n notify.Notifier) *Editor {
	return &Editor{
		api:      client,
		session:  s,
		store:    store,
		notifier: notify.Or(n),
		validate: validator.New(),
	}
}

// Prefill returns a form holding the current profile.
func (e *Editor) Prefill() Form {
	u := e.session.User()
	return Form{Username: u.Username, Email: u.Email}
}

// Validate reports the first problem of form in the order the screen checks
// them: missing fields, then the password pair, then the email format.
func (e *Editor) Validate(form Form) error {
	form.Username = strings.TrimSpace(form.Username)
	form.Email = strings.TrimSpace(form.Email)

	err := e.validate.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	var first *ValidationError
	rank := 0
	for _, fe := range fieldErrs {
		var candidate *ValidationError
		r := 0
		switch fe.Tag() {
		case "required":
			candidate, r = &ValidationError{Field: fe.Field(), Message: MsgRequired}, 3
		case "eqfield":
			candidate, r = &ValidationError{Field: fe.Field(), Message: MsgPasswordsDiffer}, 2
		case "email":
			candidate, r = &ValidationError{Field: fe.Field(), Message: MsgInvalidEmail}, 1
		default:
			candidate, r = &ValidationError{Field: fe.Field(), Message: fe.Error()}, 0
		}
		if first == nil || r > rank {
			first, rank = candidate, r
		}
	}
	return first
}

// Submit validates form and sends it as one multipart update. Nothing is
// sent when validation fails.
func (e *Editor) Submit(ctx context.Context, form Form) error {
	if err := e.Validate(form); err != nil {
		e.notifier.Error(err.Error())
		return err
	}

	update := api.ProfileUpdate{
		Username: strings.TrimSpace(form.Username),
		Email:    strings.TrimSpace(form.Email),
		Password: form.Password,
		Image:    form.ProfileImage,
	}
	if err := e.api.UpdateProfile(ctx, update); err != nil {
		e.notifier.Error(clients.UserMessage(err, MsgUpdateFailed))
		return err
	}

	e.session.SetUser(e.refreshedUser(ctx, update))
	if e.store != nil {
		if err := e.store.Save(ctx, e.session.Credentials()); err != nil {
			Logger.Log.WithError(err).Warn("fail to persist updated profile")
		}
	}
	e.notifier.Success(MsgUpdated)
	return nil
}

// refreshedUser refetches the signed in user so that a new profile image
// path reaches the session. When the refetch fails the form values are
// applied to the current user instead.
func (e *Editor) refreshedUser(ctx context.Context, update api.ProfileUpdate) model.User {
	u := e.session.User()
	users, err := e.api.ListUsers(ctx)
	if err == nil {
		for _, candidate := range users {
			if u.Id != "" && candidate.Id == u.Id {
				return candidate
			}
		}
		var resolved model.User
		if resolved, err = session.ResolveUser(e.session.Token(), users); err == nil {
			return resolved
		}
	}
	Logger.Log.WithError(err).Warn("fail to refetch updated profile")
	u.Username = update.Username
	u.Email = update.Email
	return u
}

// DeleteAccount deletes the account once confirmer agrees, then drops the
// stored credentials and returns the route to go to. A declined
// confirmation returns "" and sends nothing.
func (e *Editor) DeleteAccount(ctx context.Context, confirmer Confirmer) (string, error) {
	if confirmer == nil || !confirmer.Confirm(DeletePrompt) {
		return "", nil
	}
	if err := e.api.DeleteAccount(ctx); err != nil {
		e.notifier.Error(clients.UserMessage(err, MsgDeleteFailed))
		return "", err
	}

	if e.store != nil {
		if err := e.store.Clear(ctx); err != nil {
			Logger.Log.WithError(err).Error("fail to clear stored credentials")
		}
	}
	e.session.Clear()
	e.notifier.Success(MsgDeleted)
	return SignInRoute, nil
}
