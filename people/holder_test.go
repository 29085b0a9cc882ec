package people

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Leitan123/SmartScholarsPAF/backendtest"
	"github.com/Leitan123/SmartScholarsPAF/model"
	"github.com/Leitan123/SmartScholarsPAF/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	srv    *backendtest.Server
	me     model.User
	bob    model.User
	cy     model.User
	toasts *notify.Recorder
	holder *Holder
	ctx    context.Context
}

func setup(t *testing.T) *fixture {
	srv := backendtest.New()
	srv.Start()
	t.Cleanup(srv.Close)

	f := &fixture{srv: srv, toasts: &notify.Recorder{}, ctx: context.Background()}
	f.me = srv.AddUser("ada", "ada@example.com")
	f.bob = srv.AddUser("bob", "bob@example.com")
	f.cy = srv.AddUser("cy", "cy@example.com")
	srv.SetFollow(f.me.Id, f.cy.Id, model.FollowFollowing)

	sess := srv.SignIn(f.me)
	f.holder = NewHolder(srv.Client(sess), sess, WithNotifier(f.toasts))
	t.Cleanup(f.holder.Close)
	require.NoError(t, f.holder.Load(f.ctx))
	return f
}

func TestLoadSkipsSelf(t *testing.T) {
	f := setup(t)

	snap := f.holder.Snapshot()
	assert.Len(t, snap.Users, 3)
	assert.Equal(t, map[string]model.FollowState{
		f.bob.Id: model.FollowNone,
		f.cy.Id:  model.FollowFollowing,
	}, snap.Follows)
	assert.Equal(t, 0, f.srv.RequestCount(http.MethodGet, "/follow/status/"+f.me.Id))
	assert.Equal(t, 1, f.srv.RequestCount(http.MethodGet, "/follow/status/"+f.bob.Id))
}

func TestRequestFollowIsPendingBeforeBackendAnswers(t *testing.T) {
	f := setup(t)
	f.srv.SetLatency("/follow/"+f.bob.Id, 300*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- f.holder.RequestFollow(f.ctx, f.bob.Id)
	}()

	require.Eventually(t, func() bool {
		return f.holder.State(f.bob.Id) == model.FollowPending
	}, time.Second, time.Millisecond)
	select {
	case <-done:
		t.Fatal("state must turn pending before the request returns")
	default:
	}
	assert.True(t, f.holder.Snapshot().InFlight[f.bob.Id])

	require.NoError(t, <-done)
	assert.Equal(t, model.FollowPending, f.holder.State(f.bob.Id))
	assert.Equal(t, model.FollowPending, f.srv.FollowState(f.me.Id, f.bob.Id))
	assert.Empty(t, f.holder.Snapshot().InFlight)
}

func TestRequestFollowRollsBackOnFailure(t *testing.T) {
	f := setup(t)
	f.srv.FailNext(http.MethodPost, "/follow/"+f.bob.Id, http.StatusInternalServerError, "")

	require.Error(t, f.holder.RequestFollow(f.ctx, f.bob.Id))
	assert.Equal(t, model.FollowNone, f.holder.State(f.bob.Id))
	assert.Equal(t, "Failed to send follow request", f.toasts.Last().Message)
}

func TestRequestFollowIgnoresFollowedUsers(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.holder.RequestFollow(f.ctx, f.cy.Id))
	assert.Equal(t, 0, f.srv.RequestCount(http.MethodPost, "/follow/"+f.cy.Id))
	assert.Equal(t, model.FollowFollowing, f.holder.State(f.cy.Id))

	assert.ErrorIs(t, f.holder.RequestFollow(f.ctx, "ghost"), ErrUnknownUser)
}

func TestUnfollowWaitsForBackend(t *testing.T) {
	f := setup(t)
	f.srv.SetLatency("/follow/"+f.cy.Id, 200*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- f.holder.Unfollow(f.ctx, f.cy.Id)
	}()
	require.Eventually(t, func() bool {
		return f.srv.RequestCount(http.MethodDelete, "/follow/"+f.cy.Id) == 1
	}, time.Second, time.Millisecond)
	assert.Equal(t, model.FollowFollowing, f.holder.State(f.cy.Id))

	require.NoError(t, <-done)
	assert.Equal(t, model.FollowNone, f.holder.State(f.cy.Id))
	assert.Equal(t, model.FollowNone, f.srv.FollowState(f.me.Id, f.cy.Id))
}

func TestUnfollowFailureKeepsState(t *testing.T) {
	f := setup(t)
	f.srv.FailNext(http.MethodDelete, "/follow/"+f.cy.Id, http.StatusForbidden, "Not allowed")

	require.Error(t, f.holder.Unfollow(f.ctx, f.cy.Id))
	assert.Equal(t, model.FollowFollowing, f.holder.State(f.cy.Id))
	assert.Equal(t, "Not allowed", f.toasts.Last().Message)
}

func TestAcceptedRequestShowsAfterReload(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.holder.RequestFollow(f.ctx, f.bob.Id))
	f.srv.Accept(f.me.Id, f.bob.Id)

	require.NoError(t, f.holder.Load(f.ctx))
	assert.Equal(t, model.FollowFollowing, f.holder.State(f.bob.Id))
}

func TestLoadKeepsStateChangedWhileItRan(t *testing.T) {
	f := setup(t)
	f.srv.SetLatency("/follow/status/"+f.bob.Id, 300*time.Millisecond)

	loaded := make(chan error, 1)
	go func() {
		loaded <- f.holder.Load(f.ctx)
	}()
	// cy's status is read as FOLLOWING while bob's is still pending.
	require.Eventually(t, func() bool {
		return f.srv.RequestCount(http.MethodGet, "/follow/status/"+f.cy.Id) == 2
	}, time.Second, time.Millisecond)

	require.NoError(t, f.holder.Unfollow(f.ctx, f.cy.Id))
	assert.Equal(t, model.FollowNone, f.holder.State(f.cy.Id))

	require.NoError(t, <-loaded)
	assert.Equal(t, model.FollowNone, f.holder.State(f.cy.Id))
	assert.Equal(t, model.FollowNone, f.srv.FollowState(f.me.Id, f.cy.Id))
	assert.Equal(t, model.FollowNone, f.holder.State(f.bob.Id))
}

func TestLoadKeepsOptimisticPending(t *testing.T) {
	f := setup(t)
	f.srv.SetLatency("/follow/"+f.bob.Id, 300*time.Millisecond)

	followed := make(chan error, 1)
	go func() {
		followed <- f.holder.RequestFollow(f.ctx, f.bob.Id)
	}()
	require.Eventually(t, func() bool {
		return f.holder.State(f.bob.Id) == model.FollowPending
	}, time.Second, time.Millisecond)

	require.NoError(t, f.holder.Load(f.ctx))
	assert.Equal(t, model.FollowPending, f.holder.State(f.bob.Id))

	require.NoError(t, <-followed)
	assert.Equal(t, model.FollowPending, f.holder.State(f.bob.Id))
}

func TestNewerLoadSupersedesSlowerOne(t *testing.T) {
	f := setup(t)
	f.srv.SetLatency("/users/all", 300*time.Millisecond)

	slow := make(chan error, 1)
	go func() {
		slow <- f.holder.Load(f.ctx)
	}()
	require.Eventually(t, func() bool {
		return f.srv.RequestCount(http.MethodGet, "/users/all") == 2
	}, time.Second, time.Millisecond)

	f.srv.SetLatency("/users/all", 0)
	f.srv.AddUser("dee", "dee@example.com")
	require.NoError(t, f.holder.Load(f.ctx))

	assert.ErrorIs(t, <-slow, ErrSuperseded)
	assert.Len(t, f.holder.Snapshot().Users, 4)
	assert.Empty(t, f.toasts.Toasts())
}

func TestCloseCancelsLoad(t *testing.T) {
	f := setup(t)
	f.srv.SetLatency("/users/all", time.Second)

	done := make(chan error, 1)
	go func() {
		done <- f.holder.Load(f.ctx)
	}()
	require.Eventually(t, func() bool {
		return f.srv.RequestCount(http.MethodGet, "/users/all") == 2
	}, time.Second, time.Millisecond)

	f.holder.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("close must cancel the load in flight")
	}
	assert.Empty(t, f.toasts.Toasts())
	assert.ErrorIs(t, f.holder.Load(f.ctx), ErrClosed)
	assert.ErrorIs(t, f.holder.Unfollow(f.ctx, f.cy.Id), ErrClosed)
	assert.Equal(t, model.FollowFollowing, f.holder.State(f.cy.Id))
}
