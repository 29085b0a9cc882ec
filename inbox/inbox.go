// Package inbox lists the backend notifications of the current user.
package inbox

import (
	"context"
	"sync"

	"github.com/Leitan123/SmartScholarsPAF/api"
	"github.com/Leitan123/SmartScholarsPAF/clients"
	"github.com/Leitan123/SmartScholarsPAF/events"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/notify"
	"github.com/pkg/errors"
)

var (
	ErrSuperseded = errors.New("load superseded by a newer one")
	ErrClosed     = errors.New("inbox is closed")
)

type Holder struct {
	api      *api.Client
	notifier notify.Notifier
	bus      *events.Bus

	mu            sync.RWMutex
	notifications []model.Notification
	generation    uint64
	cancelLoad    context.CancelFunc

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHolder(client *api.Client, n notify.Notifier, bus *events.Bus) *Holder {
	ctx, cancel := context.WithCancel(context.Background())
	return &Holder{api: client, notifier: notify.Or(n), bus: bus, ctx: ctx, cancel: cancel}
}

// Load replaces the list. A newer Load or Close cancels this one.
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

	list, err := h.api.Notifications(loadCtx)

	h.mu.Lock()
	if gen != h.generation || h.ctx.Err() != nil {
		h.mu.Unlock()
		return h.staleErr()
	}
	if err != nil {
		h.mu.Unlock()
		h.notifier.Error(clients.UserMessage(err, "Failed to load notifications"))
		return err
	}
	h.notifications = list
	h.mu.Unlock()
	h.bus.Publish(events.TopicInbox, "")
	return nil
}

func (h *Holder) staleErr() error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	return ErrSuperseded
}

func (h *Holder) Notifications() []model.Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]model.Notification{}, h.notifications...)
}

func (h *Holder) Unread() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, n := range h.notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkAllRead asks the backend to mark everything read, then reloads.
func (h *Holder) MarkAllRead(ctx context.Context) error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	markCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(h.ctx, cancel)
	err := h.api.MarkNotificationsRead(markCtx)
	stop()
	cancel()
	if err != nil {
		if h.ctx.Err() != nil {
			return ErrClosed
		}
		h.notifier.Error(clients.UserMessage(err, "Failed to mark notifications as read"))
		return err
	}
	return h.Load(ctx)
}

// Close cancels every request in flight. Later calls fail with ErrClosed.
func (h *Holder) Close() {
	h.cancel()
}
