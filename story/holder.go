// Package story keeps the list of statuses (stories) and the full-screen
// viewer that shows one of them at a time.
package story

import (
	"context"
	"sync"

	"github.com/Leitan123/SmartScholarsPAF/api"
	"github.com/Leitan123/SmartScholarsPAF/clients"
	"github.com/Leitan123/SmartScholarsPAF/events"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/notify"
	"github.com/Leitan123/SmartScholarsPAF/session"
	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

var (
	ErrNotAllowed = errors.New("only the author may change this status")
	ErrSuperseded = errors.New("load superseded by a newer one")
	ErrClosed     = errors.New("status list is closed")
)

type Holder struct {
	api      *api.Client
	session  *session.Session
	notifier notify.Notifier
	bus      *events.Bus

	mu         sync.RWMutex
	statuses   []model.Status
	generation uint64
	cancelLoad context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Holder)

func WithNotifier(n notify.Notifier) Option {
	return func(h *Holder) { h.notifier = notify.Or(n) }
}

func WithBus(bus *events.Bus) Option {
	return func(h *Holder) { h.bus = bus }
}

func NewHolder(client *api.Client, s *session.Session, opts ...Option) *Holder {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Holder{api: client, session: s, notifier: notify.Discard, ctx: ctx, cancel: cancel}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CanModify reports whether me authored status.
func CanModify(me model.User, status model.Status) bool {
	author := status.User
	if author.Id == "" {
		author.Id = status.UserId
	}
	return !me.IsZero() && me.SameAs(author)
}

// Load replaces the list. A newer Load or Close cancels this one and its
// result is dropped.
func (h *Holder) Load(ctx context.Context) error {
	h.mu.Lock()
	if h.ctx.Err() != nil {
		h.mu.Unlock()
		return ErrClosed
	}
	if h.cancelLoad != nil {
		h.cancelLoad()
	}
	h.generation++
	gen := h.generation
	loadCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(h.ctx, cancel)
	h.cancelLoad = cancel
	h.mu.Unlock()
	defer stop()
	defer cancel()

	statuses, err := h.api.ListStatuses(loadCtx)

	h.mu.Lock()
	if gen != h.generation || h.ctx.Err() != nil {
		h.mu.Unlock()
		return h.staleErr()
	}
	if err != nil {
		h.mu.Unlock()
		h.notifier.Error(clients.UserMessage(err, "Failed to load statuses"))
		return err
	}
	h.statuses = statuses
	h.mu.Unlock()
	h.bus.Publish(events.TopicStory, "")
	return nil
}

func (h *Holder) staleErr() error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	return ErrSuperseded
}

func (h *Holder) Refresh(ctx context.Context) error {
	return h.Load(ctx)
}

func (h *Holder) Statuses() []model.Status {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := []model.Status{}
	copier.Copy(&res, h.statuses)
	return res
}

func (h *Holder) Find(id string) (model.Status, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.statuses {
		if s.Id == id {
			return s, true
		}
	}
	return model.Status{}, false
}

// Delete removes a status of the current user, then reloads the list. A
// failed reload is notified but does not undo the deletion.
func (h *Holder) Delete(ctx context.Context, id string) error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	if status, ok := h.Find(id); ok && !CanModify(h.session.User(), status) {
		return ErrNotAllowed
	}
	ctx, release := h.bind(ctx)
	defer release()
	if err := h.api.DeleteStatus(ctx, id); err != nil {
		return h.failed(err, "Failed to delete status")
	}
	h.notifier.Success("Status deleted")
	h.refreshAfter(ctx, "delete")
	return nil
}

func (h *Holder) Update(ctx context.Context, id string, content string) error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	if status, ok := h.Find(id); ok && !CanModify(h.session.User(), status) {
		return ErrNotAllowed
	}
	ctx, release := h.bind(ctx)
	defer release()
	if err := h.api.UpdateStatus(ctx, id, content); err != nil {
		return h.failed(err, "Failed to update status")
	}
	h.notifier.Success("Status updated")
	h.refreshAfter(ctx, "update")
	return nil
}

// failed notifies msg unless the holder was closed under the request.
func (h *Holder) failed(err error, msg string) error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	h.notifier.Error(clients.UserMessage(err, msg))
	return err
}

// refreshAfter reloads the list once a mutation went through. The mutation
// stands even when the reload fails, Load has notified already.
func (h *Holder) refreshAfter(ctx context.Context, op string) {
	if err := h.Refresh(ctx); err != nil {
		Logger.Log.WithError(err).WithField("op", op).Warn("fail to refresh statuses")
	}
}

// bind derives a context that Close cancels too.
func (h *Holder) bind(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(h.ctx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// Close cancels every request in flight. Later calls fail with ErrClosed.
func (h *Holder) Close() {
	h.cancel()
}
