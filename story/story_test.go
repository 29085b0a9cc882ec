package story

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/backendtest"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/notify"
	"github.com/Leitan123/SmartScholarsPAF/utils"
	Logger "github.com/Leitan123/SmartScholarsPAF/utils/log"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv    *backendtest.Server
	me     model.User
	bob    model.User
	mine   model.Status
	theirs model.Status
	toasts *notify.Recorder
	clock  *utils.StubClock
	holder *Holder
	viewer *Viewer
	ctx    context.Context
}

func setup(t *testing.T) *fixture {
	srv := backendtest.New()
	srv.Start()
	t.Cleanup(srv.Close)

	f := &fixture{srv: srv, toasts: &notify.Recorder{}, clock: utils.NewStubClock(), ctx: context.Background()}
	f.me = srv.AddUser("ada", "ada@example.com")
	f.bob = srv.AddUser("bob", "bob@example.com")
	f.mine = srv.AddStatus(f.me.Id, "at the library")
	f.theirs = srv.AddStatus(f.bob.Id, "exam day")

	sess := srv.SignIn(f.me)
	f.holder = NewHolder(srv.Client(sess), sess, WithNotifier(f.toasts))
	t.Cleanup(f.holder.Close)
	f.viewer = NewViewer(f.holder, WithClock(f.clock))
	require.NoError(t, f.holder.Load(f.ctx))
	return f
}

func TestLoadEmbedsAuthors(t *testing.T) {
	f := setup(t)
	statuses := f.holder.Statuses()
	require.Len(t, statuses, 2)
	assert.Equal(t, "ada", statuses[0].User.Username)
	assert.Equal(t, "bob", statuses[1].User.Username)

	assert.True(t, CanModify(f.me, statuses[0]))
	assert.False(t, CanModify(f.me, statuses[1]))
	assert.False(t, CanModify(model.User{}, statuses[0]))
}

func TestViewerAutoDismisses(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.viewer.OpenById(f.theirs.Id))
	assert.Equal(t, Viewing, f.viewer.State())

	f.clock.Advance(DefaultDuration - time.Millisecond)
	assert.Equal(t, Viewing, f.viewer.State())

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, Closed, f.viewer.State())
	_, open := f.viewer.Current()
	assert.False(t, open)
	assert.Equal(t, 0, f.clock.PendingTimers())
}

func TestReopenRestartsTheTimer(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.viewer.OpenById(f.theirs.Id))
	f.clock.Advance(3 * time.Second)
	require.NoError(t, f.viewer.OpenById(f.mine.Id))

	f.clock.Advance(3 * time.Second)
	current, open := f.viewer.Current()
	assert.True(t, open)
	assert.Equal(t, f.mine.Id, current.Id)
	assert.Equal(t, 1, f.clock.PendingTimers())

	f.clock.Advance(2 * time.Second)
	assert.Equal(t, Closed, f.viewer.State())
}

func TestEditingSuspendsAutoDismiss(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.viewer.OpenById(f.mine.Id))
	f.clock.Advance(4 * time.Second)

	require.NoError(t, f.viewer.BeginEdit())
	assert.Equal(t, Editing, f.viewer.State())
	assert.Equal(t, "at the library", f.viewer.Draft())
	assert.Equal(t, 0, f.clock.PendingTimers())

	f.clock.Advance(time.Minute)
	assert.Equal(t, Editing, f.viewer.State())

	// Cancelling grants a full duration again.
	require.NoError(t, f.viewer.CancelEdit())
	assert.Equal(t, Viewing, f.viewer.State())
	f.clock.Advance(DefaultDuration - time.Millisecond)
	assert.Equal(t, Viewing, f.viewer.State())
	f.clock.Advance(time.Millisecond)
	assert.Equal(t, Closed, f.viewer.State())
}

func TestOnlyTheAuthorEdits(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.viewer.OpenById(f.theirs.Id))
	assert.ErrorIs(t, f.viewer.BeginEdit(), ErrNotAllowed)
	assert.Equal(t, Viewing, f.viewer.State())
	assert.ErrorIs(t, f.viewer.CancelEdit(), ErrNotEditing)
	assert.ErrorIs(t, f.viewer.SaveEdit(f.ctx), ErrNotEditing)
}

func TestSaveEditUpdatesRefreshesAndCloses(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.viewer.OpenById(f.mine.Id))
	require.NoError(t, f.viewer.BeginEdit())
	f.viewer.SetDraft("at the lab")
	f.srv.ResetRequests()

	require.NoError(t, f.viewer.SaveEdit(f.ctx))
	assert.Equal(t, Closed, f.viewer.State())
	assert.Equal(t, 1, f.srv.RequestCount(http.MethodPut, "/status/"+f.mine.Id))
	assert.Equal(t, 1, f.srv.RequestCount(http.MethodGet, "/status"))

	updated, ok := f.holder.Find(f.mine.Id)
	require.True(t, ok)
	assert.Equal(t, "at the lab", updated.Content)
	assert.Equal(t, "Status updated", f.toasts.Last().Message)
}

func TestSaveEditFailureKeepsEditing(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.viewer.OpenById(f.mine.Id))
	require.NoError(t, f.viewer.BeginEdit())
	f.viewer.SetDraft("at the lab")
	f.srv.FailNext(http.MethodPut, "/status/"+f.mine.Id, http.StatusInternalServerError, "")

	require.Error(t, f.viewer.SaveEdit(f.ctx))
	assert.Equal(t, Editing, f.viewer.State())
	assert.Equal(t, "at the lab", f.viewer.Draft())
	assert.Equal(t, "Failed to update status", f.toasts.Last().Message)
	assert.Equal(t, 0, f.clock.PendingTimers())

	f.viewer.SetDraft("  ")
	assert.Error(t, f.viewer.SaveEdit(f.ctx))
}

func TestCloseFromAnyState(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.viewer.OpenById(f.mine.Id))
	require.NoError(t, f.viewer.BeginEdit())
	f.viewer.Close()
	assert.Equal(t, Closed, f.viewer.State())
	assert.Equal(t, "", f.viewer.Draft())

	require.NoError(t, f.viewer.OpenById(f.mine.Id))
	f.viewer.Close()
	assert.Equal(t, 0, f.clock.PendingTimers())
}

func TestDelete(t *testing.T) {
	f := setup(t)
	assert.ErrorIs(t, f.holder.Delete(f.ctx, f.theirs.Id), ErrNotAllowed)
	assert.Equal(t, 0, f.srv.RequestCount(http.MethodDelete, "/status/"+f.theirs.Id))

	require.NoError(t, f.viewer.OpenById(f.mine.Id))
	require.NoError(t, f.viewer.Delete(f.ctx))
	assert.Equal(t, Closed, f.viewer.State())

	statuses := f.holder.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, f.theirs.Id, statuses[0].Id)
	assert.Equal(t, "Status deleted", f.toasts.Last().Message)
}

func TestDeleteStandsWhenRefreshFails(t *testing.T) {
	f := setup(t)
	hook := logtest.NewLocal(Logger.Log.Logger)
	defer hook.Reset()
	f.srv.FailNext(http.MethodGet, "/status", http.StatusInternalServerError, "")

	require.NoError(t, f.holder.Delete(f.ctx, f.mine.Id))
	assert.Equal(t, 1, f.srv.RequestCount(http.MethodDelete, "/status/"+f.mine.Id))
	assert.Contains(t, f.toasts.Messages(notify.LevelSuccess), "Status deleted")

	var warned *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "fail to refresh statuses" {
			warned = entry
		}
	}
	require.NotNil(t, warned)
	assert.Equal(t, logrus.WarnLevel, warned.Level)
	assert.Equal(t, "delete", warned.Data["op"])
}

func TestDeleteRejectedByBackend(t *testing.T) {
	f := setup(t)
	// Unknown to the local list, so only the backend can refuse it.
	other := f.srv.AddStatus(f.bob.Id, "new")

	require.Error(t, f.holder.Delete(f.ctx, other.Id))
	assert.Equal(t, "You are not allowed to modify this status", f.toasts.Last().Message)
}

func TestNewerLoadSupersedesSlowerOne(t *testing.T) {
	f := setup(t)
	f.srv.SetLatency("/status", 300*time.Millisecond)

	slow := make(chan error, 1)
	go func() {
		slow <- f.holder.Load(f.ctx)
	}()
	require.Eventually(t, func() bool {
		return f.srv.RequestCount(http.MethodGet, "/status") == 2
	}, time.Second, time.Millisecond)

	f.srv.SetLatency("/status", 0)
	f.srv.AddStatus(f.bob.Id, "library closes at ten")
	require.NoError(t, f.holder.Load(f.ctx))

	assert.ErrorIs(t, <-slow, ErrSuperseded)
	assert.Len(t, f.holder.Statuses(), 3)
	assert.Empty(t, f.toasts.Toasts())
}

func TestCloseCancelsLoad(t *testing.T) {
	f := setup(t)
	f.srv.SetLatency("/status", time.Second)

	done := make(chan error, 1)
	go func() {
		done <- f.holder.Load(f.ctx)
	}()
	require.Eventually(t, func() bool {
		return f.srv.RequestCount(http.MethodGet, "/status") == 2
	}, time.Second, time.Millisecond)

	f.holder.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("close must cancel the load in flight")
	}
	assert.Len(t, f.holder.Statuses(), 2)
	assert.Empty(t, f.toasts.Toasts())
	assert.ErrorIs(t, f.holder.Delete(f.ctx, f.mine.Id), ErrClosed)
	assert.Equal(t, 0, f.srv.RequestCount(http.MethodDelete, "/status/"+f.mine.Id))
}
