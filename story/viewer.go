package story

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/events"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/utils"
	"github.com/pkg/errors"
)

const DefaultDuration = 5 * time.Second

type ViewerState int

const (
	Closed ViewerState = iota
	Viewing
	Editing
)

func (s ViewerState) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	}
	return "closed"
}

var ErrNotEditing = errors.New("the viewer is not editing")

// Viewer shows one status full screen and dismisses itself after duration.
//
//	Closed --Open--> Viewing --BeginEdit--> Editing
//	Viewing --timer, Close--> Closed
//	Editing --CancelEdit--> Viewing (timer restarts in full)
//	Editing --SaveEdit, Close--> Closed
//
// While editing no timer runs.
type Viewer struct {
	holder   *Holder
	clock    utils.Clock
	duration time.Duration

	mu      sync.Mutex
	state   ViewerState
	current model.Status
	draft   string
	timer   utils.Timer
	// timerGen tells a stale timer callback from the live one.
	timerGen uint64
}

type ViewerOption func(*Viewer)

func WithClock(clock utils.Clock) ViewerOption {
	return func(v *Viewer) { v.clock = clock }
}

// WithDuration sets the auto-dismiss delay, non positive values keep the
// default.
func WithDuration(d time.Duration) ViewerOption {
	return func(v *Viewer) {
		if d > 0 {
			v.duration = d
		}
	}
}

func NewViewer(holder *Holder, opts ...ViewerOption) *Viewer {
	v := &Viewer{holder: holder, clock: utils.NewRealClock(), duration: DefaultDuration}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *Viewer) State() ViewerState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Current returns the status on screen, ok is false when closed.
func (v *Viewer) Current() (model.Status, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current, v.state != Closed
}

func (v *Viewer) Draft() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.draft
}

func (v *Viewer) changed() {
	v.mu.Lock()
	id := v.current.Id
	v.mu.Unlock()
	v.holder.bus.Publish(events.TopicStory, id)
}

// startTimerLocked replaces any running timer with a fresh full-length one.
func (v *Viewer) startTimerLocked() {
	v.stopTimerLocked()
	gen := v.timerGen
	v.timer = v.clock.AfterFunc(v.duration, func() { v.expire(gen) })
}

func (v *Viewer) stopTimerLocked() {
	v.timerGen++
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
}

func (v *Viewer) expire(gen uint64) {
	v.mu.Lock()
	if gen != v.timerGen || v.state != Viewing {
		v.mu.Unlock()
		return
	}
	v.timer = nil
	v.closeLocked()
	v.mu.Unlock()
	v.changed()
}

func (v *Viewer) closeLocked() {
	v.stopTimerLocked()
	v.state = Closed
	v.draft = ""
}

// Open shows status, whatever was shown before.
func (v *Viewer) Open(status model.Status) {
	v.mu.Lock()
	v.state = Viewing
	v.current = status
	v.draft = ""
	v.startTimerLocked()
	v.mu.Unlock()
	v.changed()
}

// OpenById opens a status of the holder's list.
func (v *Viewer) OpenById(id string) error {
	status, ok := v.holder.Find(id)
	if !ok {
		return errors.Errorf("status %s not found", id)
	}
	v.Open(status)
	return nil
}

func (v *Viewer) Close() {
	v.mu.Lock()
	v.closeLocked()
	v.mu.Unlock()
	v.changed()
}

// BeginEdit stops the auto-dismiss timer and opens the edit box prefilled
// with the status content. Only the author may edit.
func (v *Viewer) BeginEdit() error {
	me := v.holder.session.User()

	v.mu.Lock()
	if v.state != Viewing {
		v.mu.Unlock()
		return errors.Errorf("cannot edit while %s", v.state)
	}
	if !CanModify(me, v.current) {
		v.mu.Unlock()
		return ErrNotAllowed
	}
	v.stopTimerLocked()
	v.state = Editing
	v.draft = v.current.Content
	v.mu.Unlock()
	v.changed()
	return nil
}

func (v *Viewer) SetDraft(content string) {
	v.mu.Lock()
	if v.state == Editing {
		v.draft = content
	}
	v.mu.Unlock()
}

// CancelEdit goes back to viewing with a full auto-dismiss delay.
func (v *Viewer) CancelEdit() error {
	v.mu.Lock()
	if v.state != Editing {
		v.mu.Unlock()
		return ErrNotEditing
	}
	v.state = Viewing
	v.draft = ""
	v.startTimerLocked()
	v.mu.Unlock()
	v.changed()
	return nil
}

// SaveEdit sends the draft, refreshes the list and closes the viewer. On
// failure the viewer stays in Editing with the draft intact.
func (v *Viewer) SaveEdit(ctx context.Context) error {
	v.mu.Lock()
	if v.state != Editing {
		v.mu.Unlock()
		return ErrNotEditing
	}
	id, draft := v.current.Id, v.draft
	v.mu.Unlock()
	if strings.TrimSpace(draft) == "" {
		return errors.New("status content cannot be empty")
	}

	if err := v.holder.Update(ctx, id, draft); err != nil {
		return err
	}

	v.mu.Lock()
	if v.state == Editing && v.current.Id == id {
		v.closeLocked()
	}
	v.mu.Unlock()
	v.changed()
	return nil
}

// Delete removes the status on screen and closes the viewer.
func (v *Viewer) Delete(ctx context.Context) error {
	v.mu.Lock()
	if v.state == Closed {
		v.mu.Unlock()
		return errors.New("no status is open")
	}
	id := v.current.Id
	v.mu.Unlock()

	if err := v.holder.Delete(ctx, id); err != nil {
		return err
	}
	v.mu.Lock()
	if v.current.Id == id {
		v.closeLocked()
	}
	v.mu.Unlock()
	v.changed()
	return nil
}
