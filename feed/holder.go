// Package feed keeps the state of the feed screen: the posts of the active
// tab and, per post, its comments, its like status and whether its comment
// section is open. All mutations go through the backend first.
package feed

import (
	"context"
	"strings"
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
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const DefaultParallelism = 8

var (
	// ErrSuperseded is returned by a load that a newer load replaced before
	// it finished. Its results were dropped.
	ErrSuperseded = errors.New("load superseded by a newer one")
	ErrClosed     = errors.New("feed is closed")
	ErrNotEditing = errors.New("no comment is being edited")
	ErrNotAllowed = errors.New("only the comment or post author may change this comment")
)

// Snapshot is a deep copy of the holder state, safe to keep and read while
// the holder moves on.
type Snapshot struct {
	Tab        Tab
	Loading    bool
	Posts      []model.Post
	Comments   map[string][]model.CommentEntry
	Likes      map[string]model.LikeStatus
	Visibility map[string]Visibility
	Drafts     map[string]string
	Editing    *EditTarget
}

type Holder struct {
	api         *api.Client
	session     *session.Session
	notifier    notify.Notifier
	bus         *events.Bus
	parallelism int

	mu         sync.RWMutex
	tab        Tab
	loading    bool
	posts      []model.Post
	comments   map[string][]model.CommentEntry
	likes      map[string]model.LikeStatus
	visibility map[string]Visibility
	drafts     map[string]string
	editing    *EditTarget

	// generation is bumped by every load, results of older loads are dropped.
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

// WithParallelism bounds the per-post fetches in flight during a load.
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
		tab:         TabFollowing,
		comments:    map[string][]model.CommentEntry{},
		likes:       map[string]model.LikeStatus{},
		visibility:  map[string]Visibility{},
		drafts:      map[string]string{},
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Holder) Tab() Tab {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tab
}

func (h *Holder) changed(id string) {
	h.bus.Publish(events.TopicFeed, id)
}

func (h *Holder) log() *logrus.Entry {
	return Logger.Log.WithField("holder", "feed")
}

// Reload loads the active tab again.
func (h *Holder) Reload(ctx context.Context) error {
	return h.SwitchTab(ctx, h.Tab())
}

// SwitchTab replaces the post list with the posts of tab, collapses every
// comment section, then fetches comments and like status of every post
// concurrently. A newer SwitchTab or Close cancels this one.
func (h *Holder) SwitchTab(ctx context.Context, tab Tab) error {
	if _, err := ParseTab(string(tab)); err != nil {
		return err
	}

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
	h.tab = tab
	h.loading = true
	h.mu.Unlock()
	defer stop()
	defer cancel()
	h.changed("")

	posts, err := h.api.ListPosts(loadCtx, tab.Scope())
	if err != nil {
		if !h.current(gen) {
			return h.staleErr()
		}
		h.finishLoad(gen)
		h.notifier.Error(clients.UserMessage(err, "Failed to load posts"))
		return err
	}

	h.mu.Lock()
	if gen != h.generation || h.ctx.Err() != nil {
		h.mu.Unlock()
		return h.staleErr()
	}
	h.posts = posts
	h.comments = map[string][]model.CommentEntry{}
	h.likes = map[string]model.LikeStatus{}
	h.visibility = map[string]Visibility{}
	h.drafts = map[string]string{}
	h.editing = nil
	for _, p := range posts {
		h.comments[p.Id] = []model.CommentEntry{}
		h.visibility[p.Id] = Collapsed
	}
	h.mu.Unlock()
	h.changed("")

	var g errgroup.Group
	g.SetLimit(h.parallelism)
	for _, p := range posts {
		postId := p.Id
		g.Go(func() error {
			entries, err := h.api.ListComments(loadCtx, postId)
			if err != nil {
				h.perPostFailure(gen, postId, err, "Failed to load comments")
				return nil
			}
			if h.merge(gen, func() { h.comments[postId] = entries }) {
				h.changed(postId)
			}
			return nil
		})
		g.Go(func() error {
			status, err := h.api.LikeStatus(loadCtx, postId)
			if err != nil {
				h.perPostFailure(gen, postId, err, "Failed to load like status")
				return nil
			}
			if h.merge(gen, func() { h.likes[postId] = status }) {
				h.changed(postId)
			}
			return nil
		})
	}
	g.Wait()

	if !h.finishLoad(gen) {
		return h.staleErr()
	}
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

// merge runs apply under the lock if gen is still the current load.
func (h *Holder) merge(gen uint64, apply func()) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.generation || h.ctx.Err() != nil {
		return false
	}
	apply()
	return true
}

func (h *Holder) finishLoad(gen uint64) bool {
	return h.merge(gen, func() { h.loading = false })
}

func (h *Holder) perPostFailure(gen uint64, postId string, err error, msg string) {
	if !h.current(gen) {
		return
	}
	h.log().WithError(err).WithField("post_id", postId).Warn(msg)
	h.notifier.Error(clients.UserMessage(err, msg))
}

func (h *Holder) hasPost(postId string) bool {
	_, ok := h.visibility[postId]
	return ok
}

func (h *Holder) findPost(postId string) (model.Post, bool) {
	for _, p := range h.posts {
		if p.Id == postId {
			return p, true
		}
	}
	return model.Post{}, false
}

// ToggleComments opens or closes the comment section of a post and returns
// the new visibility. No request is issued.
func (h *Holder) ToggleComments(postId string) Visibility {
	h.mu.Lock()
	if !h.hasPost(postId) {
		h.mu.Unlock()
		return Collapsed
	}
	v := Expanded
	if h.visibility[postId] == Expanded {
		v = Collapsed
	}
	h.visibility[postId] = v
	h.mu.Unlock()
	h.changed(postId)
	return v
}

func (h *Holder) SetDraft(postId string, text string) {
	h.mu.Lock()
	h.drafts[postId] = text
	h.mu.Unlock()
}

// SubmitComment posts the draft of postId. A blank draft is ignored. On
// success exactly one entry, authored by the current user, is appended and
// the draft is cleared.
func (h *Holder) SubmitComment(ctx context.Context, postId string) error {
	h.mu.RLock()
	draft := h.drafts[postId]
	h.mu.RUnlock()
	if strings.TrimSpace(draft) == "" {
		return nil
	}

	comment, err := h.api.CreateComment(ctx, postId, draft)
	if err != nil {
		h.notifier.Error(clients.UserMessage(err, "Failed to add comment"))
		return err
	}
	me := h.session.User()
	if comment.Content == "" {
		comment.Content = draft
	}
	if comment.PostId == "" {
		comment.PostId = postId
	}

	h.mu.Lock()
	if !h.hasPost(postId) {
		h.mu.Unlock()
		return nil
	}
	h.comments[postId] = append(h.comments[postId], model.CommentEntry{Comment: comment, User: me})
	if h.drafts[postId] == draft {
		delete(h.drafts, postId)
	}
	h.mu.Unlock()
	h.changed(postId)
	return nil
}

// CanModerateComment reports whether me may edit or delete entry under post:
// either as the comment author or as the post author.
func CanModerateComment(me model.User, post model.Post, entry model.CommentEntry) bool {
	if me.IsZero() {
		return false
	}
	commentAuthor := entry.User
	if commentAuthor.Id == "" {
		commentAuthor.Id = entry.Comment.UserId
	}
	postAuthor := post.User
	if postAuthor.Id == "" {
		postAuthor.Id = post.UserId
	}
	return me.SameAs(commentAuthor) || me.SameAs(postAuthor)
}

func (h *Holder) findComment(postId string, commentId string) (int, bool) {
	for i, e := range h.comments[postId] {
		if e.Comment.Id == commentId {
			return i, true
		}
	}
	return 0, false
}

// BeginEditComment opens the edit box on a comment, prefilled with its text.
func (h *Holder) BeginEditComment(postId string, commentId string) error {
	me := h.session.User()

	h.mu.Lock()
	post, ok := h.findPost(postId)
	idx, found := h.findComment(postId, commentId)
	if !ok || !found {
		h.mu.Unlock()
		return errors.Errorf("comment %s not found on post %s", commentId, postId)
	}
	entry := h.comments[postId][idx]
	if !CanModerateComment(me, post, entry) {
		h.mu.Unlock()
		return ErrNotAllowed
	}
	h.editing = &EditTarget{PostId: postId, CommentId: commentId, Content: entry.Comment.Content}
	h.mu.Unlock()
	h.changed(postId)
	return nil
}

func (h *Holder) SetEditContent(content string) {
	h.mu.Lock()
	if h.editing != nil {
		h.editing.Content = content
	}
	h.mu.Unlock()
}

func (h *Holder) CancelEditComment() {
	h.mu.Lock()
	target := h.editing
	h.editing = nil
	h.mu.Unlock()
	if target != nil {
		h.changed(target.PostId)
	}
}

// SaveCommentEdit sends the edit box content. A blank content is ignored and
// keeps the box open. The edit box closes only once the backend accepted it.
func (h *Holder) SaveCommentEdit(ctx context.Context) error {
	h.mu.RLock()
	if h.editing == nil {
		h.mu.RUnlock()
		return ErrNotEditing
	}
	target := *h.editing
	h.mu.RUnlock()
	if strings.TrimSpace(target.Content) == "" {
		return nil
	}

	updated, err := h.api.EditComment(ctx, target.CommentId, target.Content)
	if err != nil {
		h.notifier.Error(clients.UserMessage(err, "Failed to update comment"))
		return err
	}

	h.mu.Lock()
	if idx, ok := h.findComment(target.PostId, target.CommentId); ok {
		entry := &h.comments[target.PostId][idx]
		entry.Comment.Content = target.Content
		if updated.Id == target.CommentId && updated.Content != "" {
			entry.Comment.Content = updated.Content
		}
	}
	if h.editing != nil && h.editing.CommentId == target.CommentId {
		h.editing = nil
	}
	h.mu.Unlock()
	h.changed(target.PostId)
	return nil
}

// DeleteComment removes commentId from postId once the backend confirmed.
// Other posts are never touched.
func (h *Holder) DeleteComment(ctx context.Context, postId string, commentId string) error {
	if err := h.api.DeleteComment(ctx, commentId); err != nil {
		h.notifier.Error(clients.UserMessage(err, "Failed to delete comment"))
		return err
	}

	h.mu.Lock()
	if idx, ok := h.findComment(postId, commentId); ok {
		list := h.comments[postId]
		h.comments[postId] = append(list[:idx:idx], list[idx+1:]...)
	}
	if h.editing != nil && h.editing.CommentId == commentId {
		h.editing = nil
	}
	h.mu.Unlock()
	h.changed(postId)
	return nil
}

// ToggleLike flips the like of the current user, then refetches the
// authoritative status. Local state only changes from the refetch.
func (h *Holder) ToggleLike(ctx context.Context, postId string) (model.LikeStatus, error) {
	if err := h.api.ToggleLike(ctx, postId); err != nil {
		h.notifier.Error(clients.UserMessage(err, "Failed to toggle like"))
		return model.LikeStatus{}, err
	}
	status, err := h.api.LikeStatus(ctx, postId)
	if err != nil {
		h.notifier.Error(clients.UserMessage(err, "Failed to load like status"))
		return model.LikeStatus{}, err
	}

	h.mu.Lock()
	if h.hasPost(postId) {
		h.likes[postId] = status
	}
	h.mu.Unlock()
	h.changed(postId)
	return status, nil
}

func (h *Holder) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	snap := Snapshot{
		Tab:        h.tab,
		Loading:    h.loading,
		Comments:   make(map[string][]model.CommentEntry, len(h.comments)),
		Likes:      make(map[string]model.LikeStatus, len(h.likes)),
		Visibility: make(map[string]Visibility, len(h.visibility)),
		Drafts:     make(map[string]string, len(h.drafts)),
	}
	// DeepCopy would zero the time.Time inside Timestamp. A nil destination
	// makes copier allocate a fresh backing array for MediaPaths.
	copier.Copy(&snap.Posts, h.posts)
	for i := range snap.Posts {
		snap.Posts[i].MediaPaths = nil
		copier.Copy(&snap.Posts[i].MediaPaths, h.posts[i].MediaPaths)
	}
	for id, entries := range h.comments {
		copied := []model.CommentEntry{}
		copier.Copy(&copied, entries)
		snap.Comments[id] = copied
	}
	for id, like := range h.likes {
		snap.Likes[id] = like
	}
	for id, v := range h.visibility {
		snap.Visibility[id] = v
	}
	for id, d := range h.drafts {
		snap.Drafts[id] = d
	}
	if h.editing != nil {
		target := *h.editing
		snap.Editing = &target
	}
	return snap
}

// Close cancels any load in flight. Responses arriving afterwards are
// dropped and later loads fail with ErrClosed.
func (h *Holder) Close() {
	h.cancel()
}
