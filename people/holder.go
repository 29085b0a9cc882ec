// Package people keeps the user directory and the follow relationship of the
// current user with each of them.
package people

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
	"golang.org/x/sync/errgroup"
)

const DefaultParallelism = 8

var (
	ErrUnknownUser = errors.New("user is not in the directory")
	// ErrSuperseded is returned by a load that a newer load replaced before
	// it finished. Its results were dropped.
	ErrSuperseded = errors.New("load superseded by a newer one")
	ErrClosed     = errors.New("people directory is closed")
)

type Snapshot struct {
	Users   []model.User
	Follows map[string]model.FollowState
	// InFlight lists users with a follow or unfollow request outstanding.
	InFlight map[string]bool
}

type Holder struct {
	api         *api.Client
	session     *session.Session
	notifier    notify.Notifier
	bus         *events.Bus
	parallelism int

	mu       sync.RWMutex
	users    []model.User
	follows  map[string]model.FollowState
	inFlight map[string]bool
	// seq counts local follow state changes, touched keeps the last one per
	// user. A load never overwrites a state changed after it started.
	seq     uint64
	touched map[string]uint64

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

func WithParallelism(n int) Option {
	return func(h *Holder) {
		if n > 0 {
			h.parallelism = n
		}
	}
}

func NewHolder(client *api.Client, s *session.Session, opts ...Option) *Holder {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Holder{
		api:         client,
		session:     s,
		notifier:    notify.Discard,
		parallelism: DefaultParallelism,
		follows:     map[string]model.FollowState{},
		inFlight:    map[string]bool{},
		touched:     map[string]uint64{},
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Holder) changed(id string) {
	h.bus.Publish(events.TopicPeople, id)
}

// Load fetches every user, then the follow status of each of them except
// the current user, concurrently. A newer Load or Close cancels this one.
// Users with a request in flight, or changed locally since the load started,
// keep their local state.
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
	gen, since := h.generation, h.seq
	loadCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(h.ctx, cancel)
	h.cancelLoad = cancel
	h.mu.Unlock()
	defer stop()
	defer cancel()

	users, err := h.api.ListUsers(loadCtx)
	if err != nil {
		if !h.current(gen) {
			return h.staleErr()
		}
		h.notifier.Error(clients.UserMessage(err, "Failed to load users"))
		return err
	}

	me := h.session.User()
	follows := map[string]model.FollowState{}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(loadCtx)
	g.SetLimit(h.parallelism)
	for _, u := range users {
		if isSelf(me, u) {
			continue
		}
		userId := u.Id
		g.Go(func() error {
			state, err := h.api.FollowStatus(gctx, userId)
			if err != nil {
				Logger.Log.WithError(err).WithField("user_id", userId).Warn("fail to fetch follow status")
				state = model.FollowNone
			}
			mu.Lock()
			follows[userId] = state
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	h.mu.Lock()
	if gen != h.generation || h.ctx.Err() != nil {
		h.mu.Unlock()
		return h.staleErr()
	}
	for userId := range follows {
		if h.inFlight[userId] || h.touched[userId] > since {
			if local, ok := h.follows[userId]; ok {
				follows[userId] = local
			}
		}
	}
	h.users = users
	h.follows = follows
	h.mu.Unlock()
	h.changed("")
	return nil
}

func (h *Holder) current(gen uint64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return gen == h.generation && h.ctx.Err() == nil
}

func (h *Holder) staleErr() error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	return ErrSuperseded
}

// isSelf matches by email, the only identity the sign in flow stores for
// sure.
func isSelf(me model.User, u model.User) bool {
	if me.Email != "" {
		return me.Email == u.Email
	}
	return me.Id != "" && me.Id == u.Id
}

func (h *Holder) State(userId string) model.FollowState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if state, ok := h.follows[userId]; ok {
		return state
	}
	return model.FollowNone
}

// begin marks userId in flight, refusing a second concurrent mutation.
func (h *Holder) begin(userId string) (model.FollowState, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.inFlight[userId] {
		return h.follows[userId], false
	}
	h.inFlight[userId] = true
	state, ok := h.follows[userId]
	if !ok {
		state = model.FollowNone
	}
	return state, true
}

func (h *Holder) end(userId string, state model.FollowState) {
	h.mu.Lock()
	delete(h.inFlight, userId)
	h.setLocked(userId, state)
	h.mu.Unlock()
	h.changed(userId)
}

func (h *Holder) setLocked(userId string, state model.FollowState) {
	h.seq++
	h.touched[userId] = h.seq
	h.follows[userId] = state
}

// RequestFollow shows PENDING right away, before the backend answers, and
// rolls back to the previous state when the request fails. Users already
// followed or pending are left alone.
func (h *Holder) RequestFollow(ctx context.Context, userId string) error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	if !h.known(userId) {
		return ErrUnknownUser
	}
	previous, ok := h.begin(userId)
	if !ok || previous != model.FollowNone {
		if ok {
			h.end(userId, previous)
		}
		return nil
	}

	h.mu.Lock()
	h.setLocked(userId, model.FollowPending)
	h.mu.Unlock()
	h.changed(userId)

	ctx, release := h.bind(ctx)
	defer release()
	if err := h.api.Follow(ctx, userId); err != nil {
		h.end(userId, previous)
		if h.ctx.Err() != nil {
			return ErrClosed
		}
		h.notifier.Error(clients.UserMessage(err, "Failed to send follow request"))
		return err
	}
	h.end(userId, model.FollowPending)
	return nil
}

// Unfollow only moves to NONE once the backend confirmed.
func (h *Holder) Unfollow(ctx context.Context, userId string) error {
	if h.ctx.Err() != nil {
		return ErrClosed
	}
	if !h.known(userId) {
		return ErrUnknownUser
	}
	previous, ok := h.begin(userId)
	if !ok {
		return nil
	}
	ctx, release := h.bind(ctx)
	defer release()
	if err := h.api.Unfollow(ctx, userId); err != nil {
		h.end(userId, previous)
		if h.ctx.Err() != nil {
			return ErrClosed
		}
		h.notifier.Error(clients.UserMessage(err, "Failed to unfollow"))
		return err
	}
	h.end(userId, model.FollowNone)
	return nil
}

func (h *Holder) known(userId string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, u := range h.users {
		if u.Id == userId {
			return true
		}
	}
	return false
}

func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snap := Snapshot{
		Follows:  make(map[string]model.FollowState, len(h.follows)),
		InFlight: make(map[string]bool, len(h.inFlight)),
	}
	copier.Copy(&snap.Users, h.users)
	for id, state := range h.follows {
		snap.Follows[id] = state
	}
	for id := range h.inFlight {
		snap.InFlight[id] = true
	}
	return snap
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

// Close cancels every request in flight. Later loads fail with ErrClosed.
func (h *Holder) Close() {
	h.cancel()
}
